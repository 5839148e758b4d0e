package corpus_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"cardsight/internal/corpus"
	"cardsight/internal/testsupport"
)

func TestStorePutGetRemove(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenStore(t, filepath.Join(t.TempDir(), "corpus.db"))

	card := corpus.Card{ID: "bolt", Name: "Lightning Bolt", SetCode: "lea", CollectorNumber: "161", ManaCost: "{R}", ImageRef: "bolt.jpg"}
	if err := store.Put(ctx, card, []byte("img")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := store.Get(ctx, "bolt")
	if err != nil || !ok {
		t.Fatalf("Get: %v (found=%v)", err, ok)
	}
	if got != card {
		t.Fatalf("Get = %+v, want %+v", got, card)
	}

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing card to be absent, got ok=%v err=%v", ok, err)
	}

	removed, err := store.Remove(ctx, "bolt")
	if err != nil || !removed {
		t.Fatalf("Remove: %v (removed=%v)", err, removed)
	}
	removed, err = store.Remove(ctx, "bolt")
	if err != nil || removed {
		t.Fatalf("second Remove: %v (removed=%v)", err, removed)
	}
}

func TestStorePutRejectsInvalid(t *testing.T) {
	store := testsupport.MustOpenStore(t, filepath.Join(t.TempDir(), "corpus.db"))
	if err := store.Put(context.Background(), corpus.Card{ID: "x"}, []byte("img")); err == nil {
		t.Fatal("expected validation error")
	}
	valid := corpus.Card{ID: "x", Name: "X", SetCode: "tst", ImageRef: "x.png"}
	if err := store.Put(context.Background(), valid, nil); err == nil {
		t.Fatal("expected error for empty image")
	}
}

func TestStorePutReplaceKeepsOrder(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenStore(t, filepath.Join(t.TempDir(), "corpus.db"))
	for _, id := range []string{"a", "b", "c"} {
		if err := store.Put(ctx, corpus.Card{ID: id, Name: id, SetCode: "tst", ImageRef: id}, []byte(id)); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
	}
	if err := store.Put(ctx, corpus.Card{ID: "a", Name: "A renamed", SetCode: "tst", ImageRef: "a"}, []byte("a2")); err != nil {
		t.Fatalf("replace: %v", err)
	}

	cards, err := store.Cards(ctx)
	if err != nil {
		t.Fatalf("Cards: %v", err)
	}
	if len(cards) != 3 || cards[0].ID != "a" || cards[0].Name != "A renamed" || cards[2].ID != "c" {
		t.Fatalf("unexpected order/content: %+v", cards)
	}
	count, err := store.Count(ctx)
	if err != nil || count != 3 {
		t.Fatalf("Count = %d, %v", count, err)
	}

	rc, err := store.OpenImage(ctx, cards[0])
	if err != nil {
		t.Fatalf("OpenImage: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "a2" {
		t.Fatalf("expected replaced image, got %q", data)
	}
	if _, err := store.OpenImage(ctx, corpus.Card{ID: "zzz"}); err == nil {
		t.Fatal("expected error for unknown card")
	}
}

func TestStoreImportManifest(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cards := testsupport.SyntheticCards(3)
	path := testsupport.WriteManifest(t, dir, cards)

	// Append an entry without an image and one missing required fields.
	m := testsupport.MustLoadManifest(t, path)
	list, _ := m.Cards(ctx)
	entries := make([]corpus.ManifestEntry, 0, len(list)+2)
	for _, c := range list {
		p, _ := m.ImagePath(c.ID)
		entries = append(entries, corpus.ManifestEntry{ID: c.ID, Name: c.Name, Set: c.SetCode, ImagePath: p})
	}
	entries = append(entries,
		corpus.ManifestEntry{ID: "ghost", Name: "Ghost", Set: "tst", ImagePath: "images/ghost.png"},
		corpus.ManifestEntry{ID: "", Name: "Nameless", Set: "tst", ImagePath: "images/card-001.png"},
	)
	m = testsupport.MustLoadManifest(t, testsupport.WriteManifestEntries(t, dir, entries))

	store := testsupport.MustOpenStore(t, filepath.Join(dir, "corpus.db"))
	report, err := store.ImportManifest(ctx, m)
	if err != nil {
		t.Fatalf("ImportManifest: %v", err)
	}
	if report.Imported != 3 || len(report.Failed) != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Failed[0].ID != "ghost" {
		t.Fatalf("expected ghost failure first, got %+v", report.Failed)
	}

	stored, err := store.Cards(ctx)
	if err != nil || len(stored) != 3 {
		t.Fatalf("expected 3 stored cards, got %d (%v)", len(stored), err)
	}
	data, err := corpus.ReadImage(ctx, store, stored[0])
	if err != nil || len(data) == 0 {
		t.Fatalf("ReadImage: %d bytes, %v", len(data), err)
	}
}

func TestStoreRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.db")
	store, err := corpus.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := corpus.Open(path); !errors.Is(err, corpus.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}
