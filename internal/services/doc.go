// Package services defines shared utilities consumed by the compiler, the
// matcher and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs, card IDs, index build IDs and
//     stage names for logging.
//   - Structured error markers plus the Wrap helper that let callers tell an
//     unusable input apart from an unusable index or a skipped corpus entry.
//
// A query that finds no confident card is not an error anywhere in cardsight;
// it is a normal matcher result. Only the markers below travel as errors.
package services
