package testsupport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"cardsight/internal/corpus"
)

// ManifestCard describes one synthetic card for WriteManifest.
type ManifestCard struct {
	ID   string
	Name string
	Seed uint64
}

// SyntheticCards returns n cards with IDs card-001.. and seeds 1..n.
func SyntheticCards(n int) []ManifestCard {
	cards := make([]ManifestCard, n)
	for i := range cards {
		cards[i] = ManifestCard{
			ID:   fmt.Sprintf("card-%03d", i+1),
			Name: fmt.Sprintf("Synthetic Card %d", i+1),
			Seed: uint64(i + 1),
		}
	}
	return cards
}

// WriteManifest renders each card to a PNG under dir/images and writes a
// manifest.json that references them. It returns the manifest path.
func WriteManifest(t testing.TB, dir string, cards []ManifestCard) string {
	t.Helper()

	imageDir := filepath.Join(dir, "images")
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		t.Fatalf("mkdir images: %v", err)
	}
	entries := make([]corpus.ManifestEntry, 0, len(cards))
	for _, card := range cards {
		rel := filepath.Join("images", card.ID+".png")
		if err := os.WriteFile(filepath.Join(dir, rel), EncodePNG(t, CardImage(card.Seed)), 0o644); err != nil {
			t.Fatalf("write image %s: %v", rel, err)
		}
		entries = append(entries, corpus.ManifestEntry{
			ID:              card.ID,
			Name:            card.Name,
			Set:             "tst",
			CollectorNumber: fmt.Sprintf("%d", card.Seed),
			ImageURIs:       &corpus.ImageURIs{Normal: "https://cards.example/" + card.ID + ".jpg"},
			ImagePath:       rel,
		})
	}
	return WriteManifestEntries(t, dir, entries)
}

// WriteManifestEntries writes raw entries to dir/manifest.json.
func WriteManifestEntries(t testing.TB, dir string, entries []corpus.ManifestEntry) string {
	t.Helper()
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

// MustLoadManifest loads a manifest, failing the test on error.
func MustLoadManifest(t testing.TB, path string) *corpus.Manifest {
	t.Helper()
	m, err := corpus.LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	return m
}

// MustOpenStore opens a corpus.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, path string) *corpus.Store {
	t.Helper()

	store, err := corpus.Open(path)
	if err != nil {
		t.Fatalf("corpus.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MemorySource is an in-memory corpus.Source for compiler and matcher tests.
type MemorySource struct {
	List   []corpus.Card
	Images map[string][]byte
}

// NewMemorySource renders synthetic cards into PNG bytes.
func NewMemorySource(t testing.TB, cards []ManifestCard) *MemorySource {
	t.Helper()
	src := &MemorySource{Images: make(map[string][]byte, len(cards))}
	for _, card := range cards {
		src.List = append(src.List, corpus.Card{
			ID:       card.ID,
			Name:     card.Name,
			SetCode:  "tst",
			ImageRef: "mem://" + card.ID,
		})
		src.Images[card.ID] = EncodePNG(t, CardImage(card.Seed))
	}
	return src
}

// Cards implements corpus.Source.
func (m *MemorySource) Cards(ctx context.Context) ([]corpus.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]corpus.Card(nil), m.List...), nil
}

// OpenImage implements corpus.Source.
func (m *MemorySource) OpenImage(ctx context.Context, card corpus.Card) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, ok := m.Images[card.ID]
	if !ok {
		return nil, fmt.Errorf("no image for %q", card.ID)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
