// Package preflight provides readiness checks for the filesystem paths and
// artifacts cardsight depends on.
//
// The CLI "cardsight status" command runs RunAll and renders each Result;
// "cardsight match" calls CheckIndex first so a missing or corrupt artifact
// is reported before any frame is decoded.
package preflight
