package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cardsight/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantIndex := filepath.Join(tempHome, ".local", "share", "cardsight", "cards.idx")
	if cfg.Paths.IndexPath != wantIndex {
		t.Fatalf("unexpected index path: got %q want %q", cfg.Paths.IndexPath, wantIndex)
	}
	wantDB := filepath.Join(tempHome, ".local", "share", "cardsight", "corpus.db")
	if cfg.Paths.CorpusDB != wantDB {
		t.Fatalf("unexpected corpus db: got %q want %q", cfg.Paths.CorpusDB, wantDB)
	}
	if cfg.Extractor.Width != 224 || cfg.Extractor.Height != 312 {
		t.Fatalf("unexpected working resolution %dx%d", cfg.Extractor.Width, cfg.Extractor.Height)
	}
	if cfg.Extractor.CardAspect != 0.716 {
		t.Fatalf("unexpected card aspect %v", cfg.Extractor.CardAspect)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, filepath.Dir(cfg.Paths.IndexPath)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "cardsight.toml")

	type payload struct {
		Paths struct {
			IndexPath string `toml:"index_path"`
		} `toml:"paths"`
		Extractor struct {
			MaxKeypoints int `toml:"max_keypoints"`
		} `toml:"extractor"`
		Matcher struct {
			AcceptThreshold float64 `toml:"accept_threshold"`
			TopK            int     `toml:"top_k"`
			OffsetBin       int     `toml:"offset_bin"`
			TieEpsilon      float64 `toml:"tie_epsilon"`
		} `toml:"matcher"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.IndexPath = filepath.Join(tempDir, "idx", "custom.idx")
	custom.Extractor.MaxKeypoints = 150
	custom.Matcher.AcceptThreshold = 0.7
	custom.Matcher.TopK = 3
	custom.Matcher.OffsetBin = 12
	custom.Matcher.TieEpsilon = 0.04
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.IndexPath != custom.Paths.IndexPath {
		t.Fatalf("expected index path from file, got %q", cfg.Paths.IndexPath)
	}
	if cfg.Extractor.MaxKeypoints != 150 {
		t.Fatalf("expected max keypoints from file, got %d", cfg.Extractor.MaxKeypoints)
	}
	if cfg.Extractor.Width != config.Default().Extractor.Width {
		t.Fatalf("expected default width to survive partial file, got %d", cfg.Extractor.Width)
	}
	if cfg.Matcher.AcceptThreshold != 0.7 || cfg.Matcher.TopK != 3 ||
		cfg.Matcher.OffsetBin != 12 || cfg.Matcher.TieEpsilon != 0.04 {
		t.Fatalf("unexpected matcher section: %+v", cfg.Matcher)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized json format, got %q", cfg.Logging.Format)
	}
}

func TestEnvOverridesPaths(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Setenv("CARDSIGHT_INDEX", filepath.Join(dir, "env.idx"))
	t.Setenv("CARDSIGHT_CORPUS_DB", filepath.Join(dir, "env.db"))

	cfg, _, _, err := config.Load(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.IndexPath != filepath.Join(dir, "env.idx") {
		t.Fatalf("expected index path from env, got %q", cfg.Paths.IndexPath)
	}
	if cfg.Paths.CorpusDB != filepath.Join(dir, "env.db") {
		t.Fatalf("expected corpus db from env, got %q", cfg.Paths.CorpusDB)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "index_path") {
		t.Fatalf("sample config missing index_path: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Extractor.Width != 224 {
		t.Fatalf("expected sample width 224, got %d", cfg.Extractor.Width)
	}
	if !strings.Contains(cfg.Paths.IndexPath, "cardsight") {
		t.Fatalf("expected index path to contain cardsight, got %q", cfg.Paths.IndexPath)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"tiny resolution", func(c *config.Config) { c.Extractor.Width = 8 }},
		{"huge resolution", func(c *config.Config) { c.Extractor.Height = 4096 }},
		{"aspect", func(c *config.Config) { c.Extractor.CardAspect = 0.1 }},
		{"keypoints", func(c *config.Config) { c.Extractor.MaxKeypoints = 0 }},
		{"fast threshold", func(c *config.Config) { c.Extractor.FASTThreshold = 300 }},
		{"threshold above one", func(c *config.Config) { c.Matcher.AcceptThreshold = 1.5 }},
		{"negative weight", func(c *config.Config) { c.Matcher.ColorWeight = -0.1 }},
		{"hash ceiling", func(c *config.Config) { c.Matcher.HashDistanceCeiling = 65 }},
		{"descriptor distance", func(c *config.Config) { c.Matcher.MaxDescriptorDistance = 300 }},
		{"offset bin", func(c *config.Config) { c.Matcher.OffsetBin = -4 }},
		{"tie epsilon", func(c *config.Config) { c.Matcher.TieEpsilon = 0.6 }},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"log level", func(c *config.Config) { c.Logging.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}
