package index

import (
	"fmt"

	"cardsight/internal/corpus"
	"cardsight/internal/fingerprint"
	"cardsight/internal/services"
)

// Builder accumulates entries for a new Index. It is not safe for concurrent
// use; the compiler adds entries from a single goroutine in corpus order.
type Builder struct {
	entries []Entry
	ids     map[string]struct{}
	ann     ANNConfig
}

// NewBuilder starts an empty index. Zero ANNConfig fields take defaults.
func NewBuilder(ann ANNConfig) *Builder {
	return &Builder{ids: make(map[string]struct{}), ann: ann.normalized()}
}

// Add appends a card. Duplicate IDs are rejected.
func (b *Builder) Add(card corpus.Card, fp fingerprint.Fingerprint) error {
	if _, dup := b.ids[card.ID]; dup {
		return services.Wrap(services.ErrInvalidInput, "index", "add", fmt.Sprintf("duplicate card id %q", card.ID), nil)
	}
	b.ids[card.ID] = struct{}{}
	b.entries = append(b.entries, Entry{Card: card, Fingerprint: fp})
	return nil
}

// Len returns the number of entries added so far.
func (b *Builder) Len() int {
	return len(b.entries)
}

// Build freezes the builder into an Index. Counts, format version and ANN
// settings in meta are filled in from the builder.
func (b *Builder) Build(meta Meta) (*Index, error) {
	meta.FormatVersion = FormatVersion
	meta.ANN = b.ann
	meta.Cards = len(b.entries)
	meta.Descriptors = 0
	for _, e := range b.entries {
		meta.Descriptors += len(e.Fingerprint.Keypoints)
	}
	entries := append([]Entry(nil), b.entries...)
	idx, err := newIndex(meta, entries, nil, b.ann)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	return idx, nil
}
