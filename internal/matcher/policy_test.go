package matcher

import (
	"math"
	"testing"

	"cardsight/internal/config"
	"cardsight/internal/corpus"
)

func TestPolicyNormalizedDefaults(t *testing.T) {
	got := Policy{}.normalized()
	want := DefaultPolicy()
	if got.CoarseCandidates != want.CoarseCandidates || got.TopK != want.TopK ||
		got.AcceptThreshold != want.AcceptThreshold || got.OffsetBin != want.OffsetBin {
		t.Fatalf("zero policy should take defaults, got %+v", got)
	}
	if sum := got.HashWeight + got.GeometricWeight + got.ColorWeight; math.Abs(sum-1) > 1e-9 {
		t.Fatalf("weights should sum to 1, got %f", sum)
	}
}

func TestPolicyWeightsAreRescaled(t *testing.T) {
	p := Policy{HashWeight: 2, GeometricWeight: 2, ColorWeight: 0}.normalized()
	if p.HashWeight != 0.5 || p.GeometricWeight != 0.5 || p.ColorWeight != 0 {
		t.Fatalf("unexpected weights %+v", p)
	}

	neg := Policy{HashWeight: -1, GeometricWeight: 1, ColorWeight: 1}.normalized()
	if math.Abs(neg.HashWeight-0.35) > 1e-9 || math.Abs(neg.GeometricWeight-0.5) > 1e-9 {
		t.Fatalf("negative weight should restore defaults, got %+v", neg)
	}
}

func TestPolicyRejectsOutOfRange(t *testing.T) {
	p := Policy{
		AcceptThreshold:       1.5,
		AcceptMargin:          -0.2,
		HashDistanceCeiling:   90,
		RatioTest:             2,
		MaxDescriptorDistance: 300,
		LowTextureCeiling:     0,
		CandidateFloor:        1,
		TieEpsilon:            0.7,
	}.normalized()
	d := DefaultPolicy()
	if p.AcceptThreshold != d.AcceptThreshold || p.AcceptMargin != d.AcceptMargin ||
		p.HashDistanceCeiling != d.HashDistanceCeiling || p.RatioTest != d.RatioTest ||
		p.MaxDescriptorDistance != d.MaxDescriptorDistance || p.LowTextureCeiling != d.LowTextureCeiling ||
		p.CandidateFloor != d.CandidateFloor || p.TieEpsilon != d.TieEpsilon {
		t.Fatalf("out of range values should fall back, got %+v", p)
	}
}

func TestPolicyFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Matcher.AcceptThreshold = 0.7
	cfg.Matcher.TopK = 3
	p := PolicyFromConfig(cfg.Matcher)
	if p.AcceptThreshold != 0.7 || p.TopK != 3 {
		t.Fatalf("config values not applied: %+v", p)
	}
	if p.TieEpsilon != DefaultPolicy().TieEpsilon || p.OffsetBin != DefaultPolicy().OffsetBin {
		t.Fatalf("unset keys should keep defaults, got %+v", p)
	}

	cfg.Matcher.OffsetBin = 8
	cfg.Matcher.TieEpsilon = 0.05
	p = PolicyFromConfig(cfg.Matcher)
	if p.OffsetBin != 8 || p.TieEpsilon != 0.05 {
		t.Fatalf("offset_bin and tie_epsilon not applied: %+v", p)
	}
}

func TestRankBreaksNearTiesByColour(t *testing.T) {
	m := &Matcher{policy: DefaultPolicy()}
	scored := []scoredCandidate{
		{Candidate: Candidate{Card: corpus.Card{ID: "a"}, Confidence: 0.70, ColorSimilarity: 0.2}, pos: 0},
		{Candidate: Candidate{Card: corpus.Card{ID: "b"}, Confidence: 0.69, ColorSimilarity: 0.9}, pos: 1},
		{Candidate: Candidate{Card: corpus.Card{ID: "c"}, Confidence: 0.40, ColorSimilarity: 1.0}, pos: 2},
		{Candidate: Candidate{Card: corpus.Card{ID: "d"}, Confidence: 0.40, ColorSimilarity: 1.0}, pos: 3},
	}
	ranked := m.rank(scored)
	var order string
	for _, c := range ranked {
		order += c.Card.ID
	}
	if order != "bacd" {
		t.Fatalf("rank order = %s, want bacd", order)
	}
}

func TestDensestNeighbourhood(t *testing.T) {
	votes := map[[2]int]int{
		{0, 0}:   5,
		{1, 0}:   2,
		{-1, 1}:  1,
		{10, 10}: 7,
	}
	if got := densestNeighbourhood(votes); got != 8 {
		t.Fatalf("densest = %d, want 8", got)
	}
}

func TestFloorDiv(t *testing.T) {
	cases := []struct{ a, b, want int }{
		{15, 16, 0},
		{16, 16, 1},
		{-1, 16, -1},
		{-16, 16, -1},
		{-17, 16, -2},
	}
	for _, tc := range cases {
		if got := floorDiv(tc.a, tc.b); got != tc.want {
			t.Fatalf("floorDiv(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestAcceptRatio(t *testing.T) {
	m := &Matcher{policy: DefaultPolicy()}
	if !m.accept(10, math.MaxInt) {
		t.Fatal("a lone match within distance should be accepted")
	}
	if m.accept(70, math.MaxInt) {
		t.Fatal("matches beyond MaxDescriptorDistance must be rejected")
	}
	if m.accept(40, 45) {
		t.Fatal("ambiguous best/second pair should fail the ratio test")
	}
	if !m.accept(20, 60) {
		t.Fatal("distinctive match should pass the ratio test")
	}
}
