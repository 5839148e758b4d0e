// Package fingerprint computes the compact card signature used for both
// indexing and querying.
//
// A Fingerprint combines three views of one canonical image:
//   - a 64-bit DCT perceptual hash for the coarse filter
//   - up to MaxKeypoints FAST corners with rotated BRIEF descriptors for
//     geometric verification
//   - an HSV colour histogram (8 hue x 12 saturation x 3 value bins) used
//     as a tie-breaker
//
// Extraction is deterministic. The descriptor sampling pattern is generated
// once from a fixed seed, so the same image and Params always produce the
// same Fingerprint across processes and machines.
package fingerprint
