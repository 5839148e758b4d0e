// Package index holds the immutable, versioned card index the matcher serves
// from, the locality-sensitive hash structure over keypoint descriptors, and
// the binary artifact codec.
//
// An Index is produced once by the compiler through Builder, written with
// Save and loaded with Load at process start. It exposes no mutators; a new
// corpus means a new artifact. The Params the fingerprints were computed with
// travel inside Meta so the matcher can reproduce the exact extraction
// pipeline for queries.
//
// Artifact layout:
//
//	[8]byte  magic "CSIDX\x00\x00\x01"
//	uint16   format version, big endian
//	gzip(gob(Meta, entry count, entries..., descriptor index))
package index
