package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"cardsight/internal/config"
	"cardsight/internal/corpus"
	"cardsight/internal/index"
	"cardsight/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// openStore opens the configured corpus database. It refuses to create a new
// one unless create is set, so read-only commands report a missing corpus.
func (c *commandContext) openStore(create bool) (*corpus.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	path := cfg.Paths.CorpusDB
	if !create {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("corpus database %s does not exist; run `cardsight corpus import` first", path)
		}
	}
	return corpus.Open(path)
}

// loadIndex loads the artifact at override or the configured index path.
func (c *commandContext) loadIndex(override string) (*index.Index, string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, "", err
	}
	path, err := c.indexPath(cfg, override)
	if err != nil {
		return nil, "", err
	}
	idx, err := index.Load(path)
	if err != nil {
		return nil, path, fmt.Errorf("%w (run `cardsight compile` to build it)", err)
	}
	return idx, path, nil
}

func (c *commandContext) indexPath(cfg *config.Config, override string) (string, error) {
	if strings.TrimSpace(override) == "" {
		return cfg.Paths.IndexPath, nil
	}
	return config.ExpandPath(override)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
