// Package logging assembles structured slog loggers and formatting helpers used
// across cardsight.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so the compiler and matcher can
// tag log lines with request IDs, card IDs, build IDs and stages. A no-op
// logger is provided for tests and library callers that pass no logger.
package logging
