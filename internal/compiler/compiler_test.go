package compiler_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"cardsight/internal/compiler"
	"cardsight/internal/config"
	"cardsight/internal/corpus"
	"cardsight/internal/fingerprint"
	"cardsight/internal/index"
	"cardsight/internal/services"
	"cardsight/internal/testsupport"
)

func testOptions() compiler.Options {
	return compiler.Options{Params: fingerprint.DefaultParams(), Workers: 3, Source: "test"}
}

func TestCompileIsReproducibleAndOrdered(t *testing.T) {
	src := testsupport.NewMemorySource(t, testsupport.SyntheticCards(5))

	first, report, err := compiler.Compile(context.Background(), src, testOptions())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	second, _, err := compiler.Compile(context.Background(), src, testOptions())
	if err != nil {
		t.Fatalf("second compile: %v", err)
	}

	if report.Total != 5 || report.Indexed != 5 || len(report.Skipped) != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.BuildID == "" || first.Meta().BuildID != report.BuildID {
		t.Fatalf("build id not recorded: report %q meta %q", report.BuildID, first.Meta().BuildID)
	}
	if first.Meta().BuildID == second.Meta().BuildID {
		t.Fatal("expected distinct build ids per compile")
	}
	if report.Descriptors != first.DescriptorCount() || report.Descriptors == 0 {
		t.Fatalf("descriptor count mismatch: report %d index %d", report.Descriptors, first.DescriptorCount())
	}
	for i := 0; i < first.Len(); i++ {
		a, b := first.Entry(i), second.Entry(i)
		if a.Card.ID != src.List[i].ID {
			t.Fatalf("entry %d is %s, want corpus order %s", i, a.Card.ID, src.List[i].ID)
		}
		if a.Card != b.Card || !a.Fingerprint.Equal(b.Fingerprint) {
			t.Fatalf("entry %d differs between compiles", i)
		}
	}
	if first.Meta().Params != fingerprint.DefaultParams() {
		t.Fatalf("params not recorded: %+v", first.Meta().Params)
	}
}

func TestCompileSkipsBrokenCards(t *testing.T) {
	src := testsupport.NewMemorySource(t, testsupport.SyntheticCards(2))
	src.List = append(src.List,
		corpus.Card{ID: "garbage", Name: "Garbage", SetCode: "tst", ImageRef: "mem://garbage"},
		corpus.Card{ID: "nameless", SetCode: "tst", ImageRef: "mem://nameless"},
		corpus.Card{ID: "card-001", Name: "Duplicate", SetCode: "tst", ImageRef: "mem://dup"},
		corpus.Card{ID: "no-image", Name: "No Image", SetCode: "tst", ImageRef: "mem://none"},
	)
	src.Images["garbage"] = []byte("definitely not an image")

	var buf bytes.Buffer
	opts := testOptions()
	opts.Logger = slog.New(slog.NewJSONHandler(&buf, nil))

	idx, report, err := compiler.Compile(context.Background(), src, opts)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if idx.Len() != 2 || report.Indexed != 2 || report.Total != 6 {
		t.Fatalf("expected 2 of 6 indexed, got %d (report %+v)", idx.Len(), report)
	}
	var skipped []string
	for _, s := range report.Skipped {
		skipped = append(skipped, s.ID)
		if s.Reason == "" {
			t.Fatalf("skip %s has no reason", s.ID)
		}
		if !errors.Is(s.Err, services.ErrExtractionSkipped) {
			t.Fatalf("skip %s error %v is not marked as extraction skipped", s.ID, s.Err)
		}
	}
	want := "garbage,nameless,card-001,no-image"
	if got := strings.Join(skipped, ","); got != want {
		t.Fatalf("skipped = %s, want %s", got, want)
	}
	if idx.Meta().Skipped != 4 {
		t.Fatalf("meta skipped = %d", idx.Meta().Skipped)
	}
	entry, ok := idx.Lookup("card-001")
	if !ok || entry.Card.Name != "Synthetic Card 1" {
		t.Fatalf("first card-001 should win, got %+v", entry.Card)
	}
	if got := strings.Count(buf.String(), `"event_type":"extraction_skipped"`); got != 4 {
		t.Fatalf("expected 4 extraction_skipped warnings, got %d\n%s", got, buf.String())
	}
}

func TestCompileEmptyCorpus(t *testing.T) {
	idx, report, err := compiler.Compile(context.Background(), &testsupport.MemorySource{}, testOptions())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if idx.Len() != 0 || report.Total != 0 || report.Indexed != 0 {
		t.Fatalf("expected empty index, got %d entries", idx.Len())
	}
}

func TestCompileLimitAndProgress(t *testing.T) {
	src := testsupport.NewMemorySource(t, testsupport.SyntheticCards(4))
	opts := testOptions()
	opts.Limit = 2
	calls := 0
	opts.Progress = func(done, total int) {
		calls++
		if total != 2 || done > total {
			t.Errorf("unexpected progress %d/%d", done, total)
		}
	}
	idx, report, err := compiler.Compile(context.Background(), src, opts)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if idx.Len() != 2 || report.Total != 2 {
		t.Fatalf("limit not applied: %d entries", idx.Len())
	}
	if calls != 2 {
		t.Fatalf("expected 2 progress calls, got %d", calls)
	}
}

func TestCompileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := testsupport.NewMemorySource(t, testsupport.SyntheticCards(1))
	if _, _, err := compiler.Compile(ctx, src, testOptions()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBuildWritesLoadableArtifact(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := testsupport.NewMemorySource(t, testsupport.SyntheticCards(3))

	opts := compiler.OptionsFromConfig(cfg)
	report, err := compiler.Build(context.Background(), src, cfg.Paths.IndexPath, opts)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if report.Path != cfg.Paths.IndexPath || report.ArtifactBytes <= 0 || len(report.SHA256) != 64 {
		t.Fatalf("unexpected report %+v", report)
	}
	idx, err := index.Load(cfg.Paths.IndexPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if idx.Len() != 3 || idx.Meta().BuildID != report.BuildID {
		t.Fatalf("loaded index does not match report: %d entries, build %s", idx.Len(), idx.Meta().BuildID)
	}
}

func TestBuildEmptyCorpusLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.idx")
	if _, err := compiler.Build(context.Background(), &testsupport.MemorySource{}, path, testOptions()); err != nil {
		t.Fatalf("build: %v", err)
	}
	idx, err := index.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if idx.Len() != 0 {
		t.Fatalf("expected empty index, got %d", idx.Len())
	}
}

func TestBuildFailsWhileLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.idx")
	held := flock.New(path + ".lock")
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("take lock: %v %v", ok, err)
	}
	defer held.Unlock()

	_, err = compiler.Build(context.Background(), &testsupport.MemorySource{}, path, testOptions())
	if !errors.Is(err, compiler.ErrBuildInProgress) {
		t.Fatalf("expected ErrBuildInProgress, got %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Extractor.MaxKeypoints = 123
	cfg.Compile.Workers = 7
	opts := compiler.OptionsFromConfig(&cfg)
	if opts.Params.MaxKeypoints != 123 || opts.Workers != 7 {
		t.Fatalf("unexpected options %+v", opts)
	}
}
