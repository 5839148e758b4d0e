package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains corpus, index and log locations.
type Paths struct {
	CorpusDB  string `toml:"corpus_db"`
	IndexPath string `toml:"index_path"`
	LogDir    string `toml:"log_dir"`
}

// Extractor contains the canonical preprocessing parameters applied when an
// index is compiled. Matchers never read this section: they reuse the
// parameters recorded inside the index they serve.
type Extractor struct {
	Width         int     `toml:"width"`
	Height        int     `toml:"height"`
	CardAspect    float64 `toml:"card_aspect"`
	MaxKeypoints  int     `toml:"max_keypoints"`
	FASTThreshold int     `toml:"fast_threshold"`
}

// Compile contains offline index build settings.
type Compile struct {
	Workers int `toml:"workers"`
}

// Matcher contains the ranking policy. Zero values fall back to the matcher
// defaults.
type Matcher struct {
	CoarseCandidates      int     `toml:"coarse_candidates"`
	TopK                  int     `toml:"top_k"`
	AcceptThreshold       float64 `toml:"accept_threshold"`
	AcceptMargin          float64 `toml:"accept_margin"`
	HashWeight            float64 `toml:"hash_weight"`
	GeometricWeight       float64 `toml:"geometric_weight"`
	ColorWeight           float64 `toml:"color_weight"`
	HashDistanceCeiling   int     `toml:"hash_distance_ceiling"`
	RatioTest             float64 `toml:"ratio_test"`
	MaxDescriptorDistance int     `toml:"max_descriptor_distance"`
	OffsetBin             int     `toml:"offset_bin"`
	LowTextureCeiling     float64 `toml:"low_texture_ceiling"`
	CandidateFloor        float64 `toml:"candidate_floor"`
	TieEpsilon            float64 `toml:"tie_epsilon"`
	Workers               int     `toml:"workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for cardsight.
//
// Configuration sections by subsystem:
//   - Paths: corpus database, index artifact and log directory
//   - Extractor: canonical preprocessing recorded into compiled indexes
//   - Compile: worker count for offline builds
//   - Matcher: ranking weights, acceptance threshold and margin
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Extractor Extractor `toml:"extractor"`
	Compile   Compile   `toml:"compile"`
	Matcher   Matcher   `toml:"matcher"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cardsight/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/cardsight/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cardsight.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories that hold the log, the corpus
// database and the index artifact.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir}
	for _, file := range []string{c.Paths.CorpusDB, c.Paths.IndexPath} {
		if strings.TrimSpace(file) != "" {
			dirs = append(dirs, filepath.Dir(file))
		}
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
