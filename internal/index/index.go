package index

import (
	"fmt"
	"sync"

	"cardsight/internal/corpus"
	"cardsight/internal/fingerprint"
	"cardsight/internal/services"
)

// Entry pairs a card with its fingerprint. Slices inside the fingerprint are
// shared with the index and must be treated as read-only.
type Entry struct {
	Card        corpus.Card
	Fingerprint fingerprint.Fingerprint
}

// Index is the immutable compiled corpus.
type Index struct {
	meta    Meta
	entries []Entry
	byID    map[string]int
	hashes  []fingerprint.PHash

	// Descriptor ordinals run over entries in order, then keypoints in order.
	firstOrdinal []uint32
	owners       []uint32
	descriptors  []fingerprint.Descriptor
	ann          *DescriptorIndex

	namesOnce sync.Once
	names     nameTable
}

// newIndex derives lookup tables and checks internal consistency. A nil ann
// is built from the descriptors.
func newIndex(meta Meta, entries []Entry, ann *DescriptorIndex, annCfg ANNConfig) (*Index, error) {
	idx := &Index{
		meta:         meta,
		entries:      entries,
		byID:         make(map[string]int, len(entries)),
		hashes:       make([]fingerprint.PHash, len(entries)),
		firstOrdinal: make([]uint32, len(entries)+1),
	}

	total := 0
	for i, e := range entries {
		if _, dup := idx.byID[e.Card.ID]; dup {
			return nil, fmt.Errorf("duplicate card id %q", e.Card.ID)
		}
		idx.byID[e.Card.ID] = i
		idx.hashes[i] = e.Fingerprint.Hash
		idx.firstOrdinal[i] = uint32(total)
		total += len(e.Fingerprint.Keypoints)
	}
	idx.firstOrdinal[len(entries)] = uint32(total)

	idx.owners = make([]uint32, total)
	idx.descriptors = make([]fingerprint.Descriptor, 0, total)
	for i, e := range entries {
		for _, kp := range e.Fingerprint.Keypoints {
			idx.owners[len(idx.descriptors)] = uint32(i)
			idx.descriptors = append(idx.descriptors, kp.Descriptor)
		}
	}

	if meta.Cards != len(entries) {
		return nil, fmt.Errorf("meta reports %d cards, found %d", meta.Cards, len(entries))
	}
	if meta.Descriptors != total {
		return nil, fmt.Errorf("meta reports %d descriptors, found %d", meta.Descriptors, total)
	}

	if ann == nil {
		ann = buildANN(annCfg, idx.descriptors)
	} else if err := ann.validate(total); err != nil {
		return nil, err
	}
	idx.ann = ann
	return idx, nil
}

// Len returns the number of indexed cards.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Meta returns the build metadata.
func (idx *Index) Meta() Meta {
	return idx.meta
}

// Entry returns the i-th entry in corpus order.
func (idx *Index) Entry(i int) Entry {
	return idx.entries[i]
}

// Entries returns all entries in corpus order.
func (idx *Index) Entries() []Entry {
	return append([]Entry(nil), idx.entries...)
}

// Lookup returns the entry for a card ID.
func (idx *Index) Lookup(id string) (Entry, bool) {
	i, ok := idx.byID[id]
	if !ok {
		return Entry{}, false
	}
	return idx.entries[i], true
}

// Position returns the corpus-order position of a card ID.
func (idx *Index) Position(id string) (int, bool) {
	i, ok := idx.byID[id]
	return i, ok
}

// Hash returns the perceptual hash of the i-th entry.
func (idx *Index) Hash(i int) fingerprint.PHash {
	return idx.hashes[i]
}

// DescriptorCount returns the number of indexed descriptors.
func (idx *Index) DescriptorCount() int {
	return len(idx.descriptors)
}

// Descriptor returns the descriptor with global ordinal ord.
func (idx *Index) Descriptor(ord uint32) fingerprint.Descriptor {
	return idx.descriptors[ord]
}

// Owner returns the entry position and keypoint position of a descriptor
// ordinal.
func (idx *Index) Owner(ord uint32) (entry int, keypoint int) {
	e := idx.owners[ord]
	return int(e), int(ord - idx.firstOrdinal[e])
}

// ANN returns the descriptor neighbour structure.
func (idx *Index) ANN() *DescriptorIndex {
	return idx.ann
}

func inconsistent(err error) error {
	return services.Wrap(services.ErrIndexUnavailable, "index", "decode", "inconsistent artifact", err)
}
