package index

import (
	"time"

	"cardsight/internal/fingerprint"
)

// Meta describes how and when an index was built.
type Meta struct {
	FormatVersion uint16             `json:"format_version"`
	BuildID       string             `json:"build_id"`
	BuiltAt       time.Time          `json:"built_at"`
	Source        string             `json:"source,omitempty"`
	Params        fingerprint.Params `json:"params"`
	ANN           ANNConfig          `json:"ann"`
	Cards         int                `json:"cards"`
	Skipped       int                `json:"skipped"`
	Descriptors   int                `json:"descriptors"`
}
