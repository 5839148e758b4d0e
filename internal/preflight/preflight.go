package preflight

import (
	"context"
	"path/filepath"

	"cardsight/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every readiness check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckDirectoryAccess("Index directory", filepath.Dir(cfg.Paths.IndexPath)))
	results = append(results, CheckIndex(cfg.Paths.IndexPath))
	results = append(results, CheckCorpus(ctx, cfg.Paths.CorpusDB))
	return results
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
