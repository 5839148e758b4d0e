package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cardsight/internal/corpus"
	"cardsight/internal/index"
	"cardsight/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckIndex_Missing(t *testing.T) {
	result := CheckIndex(filepath.Join(t.TempDir(), "cards.idx"))
	if result.Passed {
		t.Fatal("expected failure for missing index")
	}
	if !strings.Contains(result.Detail, "cardsight compile") {
		t.Fatalf("expected compile hint, got %q", result.Detail)
	}
}

func TestCheckIndex_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.idx")
	if err := os.WriteFile(path, []byte("not an index at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckIndex(path); result.Passed {
		t.Fatal("expected failure for corrupt index")
	}
}

func TestCheckIndex_OK(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.idx")
	idx, err := index.NewBuilder(index.ANNConfig{}).Build(index.Meta{BuildID: "probe", BuiltAt: time.Now()})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := index.Save(path, idx); err != nil {
		t.Fatalf("save: %v", err)
	}
	result := CheckIndex(path)
	if !result.Passed {
		t.Fatalf("expected pass, got %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "0 cards") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckCorpus(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "corpus.db")

	if result := CheckCorpus(ctx, path); !result.Passed || !strings.Contains(result.Detail, "not created") {
		t.Fatalf("missing database should pass with a note, got %+v", result)
	}

	store := testsupport.MustOpenStore(t, path)
	card := corpus.Card{ID: "c1", Name: "Shock", SetCode: "m19", ImageRef: "https://cards.example/c1.jpg"}
	if err := store.Put(ctx, card, []byte("img")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	result := CheckCorpus(ctx, path)
	if !result.Passed || !strings.Contains(result.Detail, "1 cards") {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	results := RunAll(context.Background(), cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if Passed(results) {
		t.Fatal("expected overall failure without an index")
	}
	if !results[0].Passed || !results[1].Passed {
		t.Fatalf("directories should pass: %+v", results[:2])
	}
}
