package textutil

import (
	"math"
	"slices"
	"strings"
)

// Tokenize folds text and splits it into terms, dropping one-letter terms
// so articles like "a" do not dominate short card names.
func Tokenize(text string) []string {
	fields := strings.Fields(FoldName(text))
	terms := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) > 1 {
			terms = append(terms, f)
		}
	}
	return terms
}

// TermVector is a sparse bag of weighted terms kept sorted by term.
type TermVector struct {
	terms   []string
	weights []float64
	norm    float64
}

// Len returns the number of distinct terms.
func (v TermVector) Len() int {
	return len(v.terms)
}

// Cosine returns the cosine similarity of a and b, or 0 when either is empty.
func Cosine(a, b TermVector) float64 {
	if a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for i, j := 0, 0; i < len(a.terms) && j < len(b.terms); {
		switch strings.Compare(a.terms[i], b.terms[j]) {
		case 0:
			dot += a.weights[i] * b.weights[j]
			i++
			j++
		case -1:
			i++
		default:
			j++
		}
	}
	return dot / (a.norm * b.norm)
}

// NameModel weighs terms by smoothed inverse document frequency over a fixed
// list of card names, so "goblin" counts for less than "guide" in a corpus
// full of goblins. Weights are always positive.
type NameModel struct {
	idf     map[string]float64
	unknown float64
}

// NewNameModel builds the document frequencies of names.
func NewNameModel(names []string) *NameModel {
	df := make(map[string]int)
	for _, name := range names {
		terms := Tokenize(name)
		slices.Sort(terms)
		for _, term := range slices.Compact(terms) {
			df[term]++
		}
	}
	n := float64(len(names))
	m := &NameModel{
		idf:     make(map[string]float64, len(df)),
		unknown: 1 + math.Log(1+n),
	}
	for term, count := range df {
		m.idf[term] = 1 + math.Log((1+n)/(1+float64(count)))
	}
	return m
}

// Weight returns the weight of term. Terms outside the model get the weight
// of a term seen in no name. A nil model weighs every term 1.
func (m *NameModel) Weight(term string) float64 {
	if m == nil {
		return 1
	}
	if w, ok := m.idf[term]; ok {
		return w
	}
	return m.unknown
}

// Vector returns the TF-IDF vector of name.
func (m *NameModel) Vector(name string) TermVector {
	terms := Tokenize(name)
	slices.Sort(terms)
	var v TermVector
	for i := 0; i < len(terms); {
		j := i + 1
		for j < len(terms) && terms[j] == terms[i] {
			j++
		}
		w := float64(j-i) * m.Weight(terms[i])
		v.terms = append(v.terms, terms[i])
		v.weights = append(v.weights, w)
		v.norm += w * w
		i = j
	}
	v.norm = math.Sqrt(v.norm)
	return v
}
