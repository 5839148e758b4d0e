package textutil

import (
	"math"
	"slices"
	"testing"
)

func TestFoldName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Lightning Bolt", "lightning bolt"},
		{"Æther Vial", "aether vial"},
		{"AETHER-VIAL", "aether vial"},
		{"Lim-Dûl's Vault", "lim dul s vault"},
		{"  Jötun   Grunt ", "jotun grunt"},
		{"Fire // Ice", "fire ice"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FoldName(tt.in); got != tt.want {
			t.Errorf("FoldName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Jace, the Mind Sculptor")
	want := []string{"jace", "the", "mind", "sculptor"}
	if !slices.Equal(got, want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
	if got := Tokenize("A"); len(got) != 0 {
		t.Fatalf("expected one-letter terms dropped, got %v", got)
	}
}

func TestVectorCountsRepeatedTerms(t *testing.T) {
	var m *NameModel
	v := m.Vector("goblin goblin guide")
	if v.Len() != 2 {
		t.Fatalf("Len = %d, want 2", v.Len())
	}
	if math.Abs(v.norm-math.Sqrt(5)) > 1e-9 {
		t.Fatalf("norm = %v, want sqrt(5)", v.norm)
	}
	if m.Vector("").Len() != 0 {
		t.Fatal("expected empty vector for empty text")
	}
}

func TestCosineEmpty(t *testing.T) {
	var m *NameModel
	if got := Cosine(TermVector{}, m.Vector("Serra Angel")); got != 0 {
		t.Fatalf("Cosine with empty vector = %v, want 0", got)
	}
	if got := Cosine(m.Vector("Serra Angel"), TermVector{}); got != 0 {
		t.Fatalf("Cosine with empty vector = %v, want 0", got)
	}
}

func TestCosineOrdering(t *testing.T) {
	var m *NameModel
	query := m.Vector("serra angel")
	exact := m.Vector("Serra Angel")
	partial := m.Vector("Serra the Benevolent")
	unrelated := m.Vector("Counterspell")

	if got := Cosine(query, exact); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical names = %v, want 1", got)
	}
	p := Cosine(query, partial)
	if p <= 0 || p >= 1 {
		t.Fatalf("partial overlap = %v, want in (0,1)", p)
	}
	if Cosine(query, unrelated) != 0 {
		t.Fatal("expected unrelated names to score 0")
	}
	if Cosine(query, partial) != Cosine(partial, query) {
		t.Fatal("expected symmetric similarity")
	}
}

func TestNameModelDownweightsCommonTerms(t *testing.T) {
	m := NewNameModel([]string{"Goblin Guide", "Goblin Bombardment", "Goblin King", "Mogg Fanatic"})
	if m.Weight("goblin") >= m.Weight("guide") {
		t.Fatalf("expected common term to weigh less: goblin=%v guide=%v", m.Weight("goblin"), m.Weight("guide"))
	}
	if m.Weight("zzz") <= m.Weight("guide") {
		t.Fatalf("expected unseen term to weigh most: zzz=%v guide=%v", m.Weight("zzz"), m.Weight("guide"))
	}
	if m.Weight("goblin") <= 0 {
		t.Fatal("expected positive weight for a term in every name")
	}

	query := m.Vector("goblin guide")
	guide := Cosine(query, m.Vector("Goblin Guide"))
	king := Cosine(query, m.Vector("Goblin King"))
	if guide <= king {
		t.Fatalf("expected distinctive term to dominate: guide=%v king=%v", guide, king)
	}
}
