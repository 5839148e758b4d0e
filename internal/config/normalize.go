package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExtractor()
	c.normalizeCompile()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if value, ok := os.LookupEnv("CARDSIGHT_CORPUS_DB"); ok && strings.TrimSpace(value) != "" {
		c.Paths.CorpusDB = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("CARDSIGHT_INDEX"); ok && strings.TrimSpace(value) != "" {
		c.Paths.IndexPath = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.CorpusDB) == "" {
		c.Paths.CorpusDB = defaultCorpusDB
	}
	if c.Paths.CorpusDB, err = expandPath(c.Paths.CorpusDB); err != nil {
		return fmt.Errorf("paths.corpus_db: %w", err)
	}
	if strings.TrimSpace(c.Paths.IndexPath) == "" {
		c.Paths.IndexPath = defaultIndexPath
	}
	if c.Paths.IndexPath, err = expandPath(c.Paths.IndexPath); err != nil {
		return fmt.Errorf("paths.index_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeExtractor() {
	if c.Extractor.Width <= 0 {
		c.Extractor.Width = defaultWidth
	}
	if c.Extractor.Height <= 0 {
		c.Extractor.Height = defaultHeight
	}
	if c.Extractor.CardAspect <= 0 {
		c.Extractor.CardAspect = defaultCardAspect
	}
	if c.Extractor.MaxKeypoints <= 0 {
		c.Extractor.MaxKeypoints = defaultMaxKeypoints
	}
	if c.Extractor.FASTThreshold <= 0 {
		c.Extractor.FASTThreshold = defaultFASTThreshold
	}
}

func (c *Config) normalizeCompile() {
	if c.Compile.Workers <= 0 {
		c.Compile.Workers = defaultCompileWorkers
	}
	if c.Matcher.Workers <= 0 {
		c.Matcher.Workers = defaultMatchWorkers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
