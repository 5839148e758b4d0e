package config

import (
	"errors"
	"fmt"
	"math"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateExtractor(); err != nil {
		return err
	}
	if err := c.validateMatcher(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateExtractor() error {
	e := c.Extractor
	if e.Width < 32 || e.Height < 32 {
		return fmt.Errorf("extractor: working resolution %dx%d is below the 32px minimum", e.Width, e.Height)
	}
	if e.Width > 2048 || e.Height > 2048 {
		return fmt.Errorf("extractor: working resolution %dx%d exceeds the 2048px maximum", e.Width, e.Height)
	}
	if e.CardAspect < 0.3 || e.CardAspect > 3 || math.IsNaN(e.CardAspect) {
		return fmt.Errorf("extractor.card_aspect must be within [0.3, 3], got %v", e.CardAspect)
	}
	if e.MaxKeypoints <= 0 || e.MaxKeypoints > 5000 {
		return fmt.Errorf("extractor.max_keypoints must be within [1, 5000], got %d", e.MaxKeypoints)
	}
	if e.FASTThreshold <= 0 || e.FASTThreshold > 255 {
		return fmt.Errorf("extractor.fast_threshold must be within [1, 255], got %d", e.FASTThreshold)
	}
	if c.Compile.Workers <= 0 {
		return errors.New("compile.workers must be positive")
	}
	return nil
}

func (c *Config) validateMatcher() error {
	m := c.Matcher
	for name, value := range map[string]float64{
		"accept_threshold":    m.AcceptThreshold,
		"accept_margin":       m.AcceptMargin,
		"ratio_test":          m.RatioTest,
		"low_texture_ceiling": m.LowTextureCeiling,
		"candidate_floor":     m.CandidateFloor,
	} {
		if math.IsNaN(value) || value < 0 || value > 1 {
			return fmt.Errorf("matcher.%s must be within [0, 1], got %v", name, value)
		}
	}
	for name, value := range map[string]float64{
		"hash_weight":      m.HashWeight,
		"geometric_weight": m.GeometricWeight,
		"color_weight":     m.ColorWeight,
	} {
		if math.IsNaN(value) || value < 0 {
			return fmt.Errorf("matcher.%s must not be negative, got %v", name, value)
		}
	}
	if math.IsNaN(m.TieEpsilon) || m.TieEpsilon < 0 || m.TieEpsilon >= 0.5 {
		return fmt.Errorf("matcher.tie_epsilon must be within [0, 0.5), got %v", m.TieEpsilon)
	}
	if m.CoarseCandidates < 0 || m.TopK < 0 || m.HashDistanceCeiling < 0 || m.MaxDescriptorDistance < 0 || m.OffsetBin < 0 {
		return errors.New("matcher: counts and distances must not be negative")
	}
	if m.HashDistanceCeiling > 64 {
		return fmt.Errorf("matcher.hash_distance_ceiling must be at most 64, got %d", m.HashDistanceCeiling)
	}
	if m.MaxDescriptorDistance > 256 {
		return fmt.Errorf("matcher.max_descriptor_distance must be at most 256, got %d", m.MaxDescriptorDistance)
	}
	if m.Workers <= 0 {
		return errors.New("matcher.workers must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json", "":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
