package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cardsight/internal/matcher"
	"cardsight/internal/services"
	"cardsight/internal/testsupport"
)

func TestCorpusCompileMatchFlow(t *testing.T) {
	env := setupCLITestEnv(t)
	manifest := testsupport.WriteManifest(t, filepath.Join(env.baseDir, "manifest"), testsupport.SyntheticCards(3))

	out, _, err := runCLI(t, []string{"corpus", "import", manifest}, env.configPath)
	if err != nil {
		t.Fatalf("corpus import: %v", err)
	}
	requireContains(t, out, "Imported 3 cards")

	out, _, err = runCLI(t, []string{"corpus", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("corpus list: %v", err)
	}
	requireContains(t, out, "card-002")
	requireContains(t, out, "Synthetic Card 3")

	out, _, err = runCLI(t, []string{"compile"}, env.configPath)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	requireContains(t, out, "Indexed 3 of 3 cards")
	if _, err := os.Stat(env.cfg.Paths.IndexPath); err != nil {
		t.Fatalf("expected index at %s: %v", env.cfg.Paths.IndexPath, err)
	}

	out, _, err = runCLI(t, []string{"inspect"}, env.configPath)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	requireContains(t, out, "Descriptors")
	requireContains(t, out, "corpus:")

	photo := filepath.Join(env.baseDir, "photo.png")
	if err := os.WriteFile(photo, testsupport.EncodePNG(t, testsupport.CardImage(2)), 0o644); err != nil {
		t.Fatalf("write photo: %v", err)
	}
	missing := filepath.Join(env.baseDir, "missing.png")
	out, _, err = runCLI(t, []string{"match", "--json", photo, missing}, env.configPath)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	var results []struct {
		Image  string          `json:"image"`
		Result *matcher.Result `json:"result"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode match output: %v\n%s", err, out)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Result == nil || results[0].Result.Outcome != matcher.OutcomeConfident || results[0].Result.Match.Card.ID != "card-002" {
		t.Fatalf("unexpected match result %+v", results[0])
	}
	if results[1].Error == "" || results[1].Result != nil {
		t.Fatalf("missing photo should report an error, got %+v", results[1])
	}

	out, _, err = runCLI(t, []string{"match", photo}, env.configPath)
	if err != nil {
		t.Fatalf("match table: %v", err)
	}
	requireContains(t, out, "Synthetic Card 2 (TST #2)")
	requireContains(t, out, "confident")

	out, _, err = runCLI(t, []string{"lookup", "synthetic", "card", "3"}, env.configPath)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	requireContains(t, out, "card-003")

	out, _, err = runCLI(t, []string{"corpus", "remove", "card-003"}, env.configPath)
	if err != nil {
		t.Fatalf("corpus remove: %v", err)
	}
	requireContains(t, out, "Removed card-003")
	if _, _, err := runCLI(t, []string{"corpus", "remove", "card-003"}, env.configPath); err == nil {
		t.Fatal("removing a missing card should fail")
	}
}

func TestCompileFromManifestWithLimit(t *testing.T) {
	env := setupCLITestEnv(t)
	manifest := testsupport.WriteManifest(t, filepath.Join(env.baseDir, "manifest"), testsupport.SyntheticCards(3))
	out, _, err := runCLI(t, []string{"compile", "--manifest", manifest, "--limit", "2", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	var report struct {
		Total   int    `json:"total"`
		Indexed int    `json:"indexed"`
		SHA256  string `json:"sha256"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if report.Total != 2 || report.Indexed != 2 || report.SHA256 == "" {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestCompileWithoutCorpusFails(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"compile"}, env.configPath)
	if err == nil {
		t.Fatal("expected compile without a corpus to fail")
	}
	requireContains(t, err.Error(), "corpus import")
}

func TestMatchWithoutIndexFails(t *testing.T) {
	env := setupCLITestEnv(t)
	photo := filepath.Join(env.baseDir, "photo.png")
	if err := os.WriteFile(photo, testsupport.EncodePNG(t, testsupport.CardImage(1)), 0o644); err != nil {
		t.Fatalf("write photo: %v", err)
	}
	_, _, err := runCLI(t, []string{"match", photo}, env.configPath)
	if !errors.Is(err, services.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
}

func TestMatchRejectsBadRotation(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"match", "--rotate", "45", "photo.png"}, env.configPath)
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCorpusAdd(t *testing.T) {
	env := setupCLITestEnv(t)
	img := filepath.Join(env.baseDir, "bolt.png")
	if err := os.WriteFile(img, testsupport.EncodePNG(t, testsupport.CardImage(9)), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	out, _, err := runCLI(t, []string{"corpus", "add", "--id", "bolt", "--name", "Lightning Bolt", "--set", "LEA", "--number", "161", "--image", img}, env.configPath)
	if err != nil {
		t.Fatalf("corpus add: %v", err)
	}
	requireContains(t, out, "Stored Lightning Bolt (LEA #161) as bolt")

	out, _, err = runCLI(t, []string{"corpus", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("corpus list: %v", err)
	}
	requireContains(t, out, `"set": "lea"`)
}

func TestStatusReportsMissingIndex(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Readiness ==")
	requireContains(t, out, "[ERROR]")
	requireContains(t, out, "cardsight compile")
	requireContains(t, out, "check(s) failed")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.cfg.Paths.IndexPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}
