// Package canon turns a captured frame into the canonical card image every
// fingerprint is computed from.
//
// The pipeline is fixed: convert to RGBA, apply the rotation hint with a
// lossless pixel remap, crop to the card (either around a caller-supplied
// CropHint or the largest centred box with the card aspect ratio), then
// resize to the working resolution. Compile time and query time must use the
// same Params; the index records them so the matcher can reuse them.
package canon
