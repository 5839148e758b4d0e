package fingerprint

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"math/bits"
	"slices"
	"strconv"

	"github.com/nfnt/resize"
)

const (
	hashSize   = 8
	hashSample = 32
)

// PHash is a 64-bit DCT perceptual hash. It is not rotation invariant.
type PHash uint64

// asGray returns img as an origin-anchored *image.Gray, converting when the
// resampler hands back another pixel format.
func asGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Rect, img, b.Min, draw.Src)
	return g
}

// Hamming returns the number of differing bits between two hashes.
func Hamming(a, b PHash) int {
	return bits.OnesCount64(uint64(a ^ b))
}

func (h PHash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// ParsePHash parses the 16 hex digit form produced by String.
func ParsePHash(s string) (PHash, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse phash %q: %w", s, err)
	}
	return PHash(v), nil
}

var dctTable = func() [hashSize][hashSample]float64 {
	var t [hashSize][hashSample]float64
	for u := 0; u < hashSize; u++ {
		for x := 0; x < hashSample; x++ {
			t[u][x] = math.Cos(float64(2*x+1) * float64(u) * math.Pi / (2 * hashSample))
		}
	}
	return t
}()

// computePHash downsamples img to 32x32 grey, takes the 8x8 low-frequency
// block of its 2-D DCT-II and sets each bit whose coefficient exceeds the
// block median. Bits are laid out row-major from the most significant end.
func computePHash(img image.Image) PHash {
	small := asGray(resize.Resize(hashSample, hashSample, img, resize.Bilinear))

	var rows [hashSample][hashSize]float64
	for y := 0; y < hashSample; y++ {
		line := small.Pix[y*small.Stride : y*small.Stride+hashSample]
		for u := 0; u < hashSize; u++ {
			var sum float64
			for x, p := range line {
				sum += float64(p) * dctTable[u][x]
			}
			rows[y][u] = sum
		}
	}

	coeffs := make([]float64, 0, hashSize*hashSize)
	for v := 0; v < hashSize; v++ {
		for u := 0; u < hashSize; u++ {
			var sum float64
			for y := 0; y < hashSample; y++ {
				sum += rows[y][u] * dctTable[v][y]
			}
			coeffs = append(coeffs, sum)
		}
	}

	sorted := slices.Clone(coeffs)
	slices.Sort(sorted)
	median := (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2

	var h uint64
	for i, c := range coeffs {
		if c > median {
			h |= 1 << uint(63-i)
		}
	}
	return PHash(h)
}
