package fingerprint

import "image"

const (
	HueBins        = 8
	SaturationBins = 12
	ValueBins      = 3
	// HistogramLen is the fixed length of Fingerprint.Histogram.
	HistogramLen = HueBins * SaturationBins * ValueBins
)

// computeHistogram bins every pixel by HSV and L1-normalises the counts.
// Bin index is hue*36 + saturation*3 + value.
func computeHistogram(img *image.RGBA) []float32 {
	counts := make([]uint32, HistogramLen)
	b := img.Bounds()
	total := 0
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			h, s, v := hsv(row[x*4], row[x*4+1], row[x*4+2])
			hb := min(int(h*HueBins), HueBins-1)
			sb := min(int(s*SaturationBins), SaturationBins-1)
			vb := min(int(v*ValueBins), ValueBins-1)
			counts[hb*SaturationBins*ValueBins+sb*ValueBins+vb]++
			total++
		}
	}

	hist := make([]float32, HistogramLen)
	if total == 0 {
		return hist
	}
	for i, c := range counts {
		hist[i] = float32(float64(c) / float64(total))
	}
	return hist
}

// hsv converts 8-bit RGB to hue, saturation and value, each in [0,1).
func hsv(r8, g8, b8 uint8) (float64, float64, float64) {
	r, g, b := float64(r8)/255, float64(g8)/255, float64(b8)/255
	maxC := max(r, g, b)
	minC := min(r, g, b)
	delta := maxC - minC

	var h float64
	switch {
	case delta == 0:
		h = 0
	case maxC == r:
		h = (g - b) / delta
		if h < 0 {
			h += 6
		}
	case maxC == g:
		h = (b-r)/delta + 2
	default:
		h = (r-g)/delta + 4
	}
	h /= 6

	var s float64
	if maxC > 0 {
		s = delta / maxC
	}
	return h, s, maxC
}

// HistogramIntersection returns the sum of bin-wise minima of two
// L1-normalised histograms, in [0,1]. Mismatched lengths score 0.
func HistogramIntersection(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(min(a[i], b[i]))
	}
	if sum > 1 {
		return 1
	}
	return sum
}
