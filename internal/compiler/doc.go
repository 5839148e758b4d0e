// Package compiler turns a corpus source into an index artifact.
//
// Compile fingerprints every card on a bounded worker pool and assembles the
// results in corpus order, so two compiles of the same corpus with the same
// parameters produce identical entries. Cards that cannot be read, decoded or
// cropped are skipped with an extraction_skipped warning instead of failing
// the build. Build wraps Compile with an exclusive lock on the output path
// and an atomic write, leaving the previous artifact in place until the new
// one is complete.
package compiler
