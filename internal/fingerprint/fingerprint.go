package fingerprint

import "math/bits"

// DescriptorWords is the number of 64-bit words in a binary descriptor.
const DescriptorWords = 4

// Descriptor is a 256-bit rotated BRIEF descriptor.
type Descriptor [DescriptorWords]uint64

// Distance returns the Hamming distance between two descriptors.
func (d Descriptor) Distance(other Descriptor) int {
	n := 0
	for i := range d {
		n += bits.OnesCount64(d[i] ^ other[i])
	}
	return n
}

// Bit reports bit i (0-255).
func (d Descriptor) Bit(i int) bool {
	return d[i>>6]&(1<<(uint(i)&63)) != 0
}

// Keypoint is a corner in canonical image coordinates.
type Keypoint struct {
	X          uint16
	Y          uint16
	Angle      uint8
	Response   float32
	Descriptor Descriptor
}

// Fingerprint is the signature of one canonical card image.
type Fingerprint struct {
	Hash      PHash
	Keypoints []Keypoint
	Histogram []float32
}

// Descriptors returns the keypoint descriptors in keypoint order.
func (f Fingerprint) Descriptors() []Descriptor {
	out := make([]Descriptor, len(f.Keypoints))
	for i, kp := range f.Keypoints {
		out[i] = kp.Descriptor
	}
	return out
}

// LowTexture reports whether no keypoints were detected.
func (f Fingerprint) LowTexture() bool {
	return len(f.Keypoints) == 0
}

// Equal reports whether two fingerprints are identical.
func (f Fingerprint) Equal(other Fingerprint) bool {
	if f.Hash != other.Hash || len(f.Keypoints) != len(other.Keypoints) || len(f.Histogram) != len(other.Histogram) {
		return false
	}
	for i := range f.Keypoints {
		if f.Keypoints[i] != other.Keypoints[i] {
			return false
		}
	}
	for i := range f.Histogram {
		if f.Histogram[i] != other.Histogram[i] {
			return false
		}
	}
	return true
}
