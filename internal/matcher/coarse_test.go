package matcher

import (
	"cmp"
	"context"
	"slices"
	"testing"

	"cardsight/internal/compiler"
	"cardsight/internal/fingerprint"
	"cardsight/internal/testsupport"
)

func TestCoarseKeepsClosestHashes(t *testing.T) {
	const cards, keep = 24, 5
	src := testsupport.NewMemorySource(t, testsupport.SyntheticCards(cards))
	idx, _, err := compiler.Compile(context.Background(), src, compiler.Options{
		Params:  fingerprint.DefaultParams(),
		Workers: 2,
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	policy := DefaultPolicy()
	policy.CoarseCandidates = keep
	m := New(idx, policy, nil)

	for _, target := range []int{0, 7, cards - 1} {
		query := idx.Hash(target)
		got := m.coarse(query)
		if len(got) != keep {
			t.Fatalf("coarse kept %d positions, want %d", len(got), keep)
		}

		all := make([]int, idx.Len())
		for i := range all {
			all[i] = i
		}
		slices.SortFunc(all, func(a, b int) int {
			da := fingerprint.Hamming(query, idx.Hash(a))
			db := fingerprint.Hamming(query, idx.Hash(b))
			return cmp.Or(cmp.Compare(da, db), cmp.Compare(a, b))
		})
		if !slices.Equal(got, all[:keep]) {
			t.Fatalf("target %d: coarse kept %v, want %v", target, got, all[:keep])
		}
		if !slices.Contains(got, target) {
			t.Fatalf("target %d dropped by coarse filter", target)
		}
	}

	const want = "card-010"
	res, err := m.Match(context.Background(), Query{Image: testsupport.CardImage(10)})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if res.Examined != keep {
		t.Fatalf("examined %d, want %d", res.Examined, keep)
	}
	if res.Outcome != OutcomeConfident || res.Match == nil || res.Match.Card.ID != want {
		t.Fatalf("expected confident %s after truncation, got %s %+v", want, res.Outcome, res.Candidates)
	}
}
