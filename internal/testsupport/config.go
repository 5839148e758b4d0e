package testsupport

import (
	"path/filepath"
	"testing"

	"cardsight/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CorpusDB = filepath.Join(base, "data", "corpus.db")
	cfgVal.Paths.IndexPath = filepath.Join(base, "data", "cards.idx")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Compile.Workers = 2
	cfgVal.Matcher.Workers = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithIndexPath points the config at a specific index artifact, relative
// paths being resolved against the test's base directory.
func WithIndexPath(path string) ConfigOption {
	return func(b *configBuilder) {
		if !filepath.IsAbs(path) {
			path = filepath.Join(b.baseDir, path)
		}
		b.cfg.Paths.IndexPath = path
	}
}

// WithMaxKeypoints overrides the extractor keypoint budget.
func WithMaxKeypoints(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Extractor.MaxKeypoints = n
	}
}

// WithLogLevel sets the logging level on the test config.
func WithLogLevel(level string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.Level = level
	}
}

// BaseDir returns the temp directory backing a config built by NewConfig.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(filepath.Dir(cfg.Paths.CorpusDB))
}
