package index

import (
	"cmp"
	"slices"

	"cardsight/internal/textutil"
)

const (
	defaultNameLimit  = 10
	minNameSimilarity = 0.3
	exactNameScore    = 1.0
)

// NameMatch is a FindByName hit.
type NameMatch struct {
	Entry Entry
	Score float64
}

type nameTable struct {
	folded  []string
	vectors []textutil.TermVector
	model   *textutil.NameModel
}

func (idx *Index) nameTable() *nameTable {
	idx.namesOnce.Do(func() {
		names := make([]string, len(idx.entries))
		idx.names.folded = make([]string, len(idx.entries))
		for i, e := range idx.entries {
			names[i] = e.Card.Name
			idx.names.folded[i] = textutil.FoldName(e.Card.Name)
		}
		idx.names.model = textutil.NewNameModel(names)
		idx.names.vectors = make([]textutil.TermVector, len(names))
		for i, name := range names {
			idx.names.vectors[i] = idx.names.model.Vector(name)
		}
	})
	return &idx.names
}

// FindByName returns cards whose name matches query ignoring case,
// diacritics and punctuation. Exact folded matches win outright and are
// returned in corpus order; otherwise names are ranked by TF-IDF cosine
// similarity. limit <= 0 uses a default of 10.
func (idx *Index) FindByName(query string, limit int) []NameMatch {
	if limit <= 0 {
		limit = defaultNameLimit
	}
	folded := textutil.FoldName(query)
	if folded == "" {
		return nil
	}
	names := idx.nameTable()

	var matches []NameMatch
	for i, name := range names.folded {
		if name == folded {
			matches = append(matches, NameMatch{Entry: idx.entries[i], Score: exactNameScore})
			if len(matches) == limit {
				return matches
			}
		}
	}
	if len(matches) > 0 {
		return matches
	}

	qv := names.model.Vector(query)
	if qv.Len() == 0 {
		return nil
	}
	type scored struct {
		pos   int
		score float64
	}
	var hits []scored
	for i, v := range names.vectors {
		if s := textutil.Cosine(qv, v); s >= minNameSimilarity {
			hits = append(hits, scored{pos: i, score: s})
		}
	}
	slices.SortStableFunc(hits, func(a, b scored) int {
		return cmp.Compare(b.score, a.score)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	for _, h := range hits {
		matches = append(matches, NameMatch{Entry: idx.entries[h.pos], Score: h.score})
	}
	return matches
}
