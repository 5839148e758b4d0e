package compiler

import "time"

// Skip records a card left out of the index. Err is marked with
// services.ErrExtractionSkipped.
type Skip struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Report summarises a compile.
type Report struct {
	BuildID       string        `json:"build_id"`
	Total         int           `json:"total"`
	Indexed       int           `json:"indexed"`
	Skipped       []Skip        `json:"skipped,omitempty"`
	Descriptors   int           `json:"descriptors"`
	Duration      time.Duration `json:"duration"`
	Path          string        `json:"path,omitempty"`
	ArtifactBytes int64         `json:"artifact_bytes,omitempty"`
	SHA256        string        `json:"sha256,omitempty"`
}
