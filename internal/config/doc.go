// Package config loads, normalizes, and validates cardsight configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CARDSIGHT_INDEX. The Config type centralizes the corpus and index
// locations, the canonical extractor parameters used at compile time, and the
// matcher policy knobs (weights, acceptance threshold and margin).
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
