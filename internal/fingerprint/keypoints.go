package fingerprint

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"
)

const (
	// patchRadius bounds both the orientation moment and the descriptor
	// sampling pattern.
	patchRadius = 15
	// smoothRadius is the half-width of the box filter applied before
	// descriptor sampling.
	smoothRadius = 2
	// border keeps every rotated sample and its smoothing box inside the
	// image.
	border = patchRadius + smoothRadius + 1

	angleBins       = 30
	descriptorPairs = DescriptorWords * 64
	fastArc         = 9
	patternSeedHi   = 0x63617264
	patternSeedLo   = 0x73696768
)

// fastCircle is the Bresenham circle of radius 3 used by the segment test.
var fastCircle = [16][2]int{
	{0, -3}, {1, -3}, {2, -2}, {3, -1}, {3, 0}, {3, 1}, {2, 2}, {1, 3},
	{0, 3}, {-1, 3}, {-2, 2}, {-3, 1}, {-3, 0}, {-3, -1}, {-2, -2}, {-1, -3},
}

type samplePair struct {
	ax, ay, bx, by int8
}

// rotatedPatterns holds the descriptor sampling pattern pre-rotated for each
// orientation bin.
var rotatedPatterns = buildPatterns()

func buildPatterns() [angleBins][descriptorPairs]samplePair {
	rng := rand.New(rand.NewPCG(patternSeedHi, patternSeedLo))
	limit := float64(patchRadius - 1)
	point := func() (float64, float64) {
		for {
			x := rng.NormFloat64() * patchRadius / 2.5
			y := rng.NormFloat64() * patchRadius / 2.5
			if x*x+y*y <= limit*limit {
				return x, y
			}
		}
	}
	type pair struct{ ax, ay, bx, by float64 }
	var base [descriptorPairs]pair
	for i := range base {
		ax, ay := point()
		bx, by := point()
		base[i] = pair{ax, ay, bx, by}
	}

	var out [angleBins][descriptorPairs]samplePair
	for bin := 0; bin < angleBins; bin++ {
		theta := float64(bin) * 2 * math.Pi / angleBins
		sin, cos := math.Sincos(theta)
		rot := func(x, y float64) (int8, int8) {
			return int8(math.Round(x*cos - y*sin)), int8(math.Round(x*sin + y*cos))
		}
		for i, p := range base {
			ax, ay := rot(p.ax, p.ay)
			bx, by := rot(p.bx, p.by)
			out[bin][i] = samplePair{ax, ay, bx, by}
		}
	}
	return out
}

type corner struct {
	x, y  int
	score float32
}

// detectKeypoints runs FAST-9 with 3x3 non-maximum suppression and keeps the
// strongest limit corners, then orients and describes each one.
func detectKeypoints(g *grayPlane, threshold, limit int) []Keypoint {
	if g.w <= 2*border || g.h <= 2*border || limit <= 0 {
		return nil
	}

	scores := make([]float32, g.w*g.h)
	var candidates []corner
	for y := border; y < g.h-border; y++ {
		for x := border; x < g.w-border; x++ {
			if s := fastScore(g, x, y, threshold); s > 0 {
				scores[y*g.w+x] = s
				candidates = append(candidates, corner{x: x, y: y, score: s})
			}
		}
	}

	corners := candidates[:0]
	for _, c := range candidates {
		if isLocalMax(scores, g.w, c) {
			corners = append(corners, c)
		}
	}

	slices.SortFunc(corners, func(a, b corner) int {
		if a.score != b.score {
			return cmp.Compare(b.score, a.score)
		}
		if a.y != b.y {
			return cmp.Compare(a.y, b.y)
		}
		return cmp.Compare(a.x, b.x)
	})
	if len(corners) > limit {
		corners = corners[:limit]
	}

	out := make([]Keypoint, 0, len(corners))
	for _, c := range corners {
		bin := orientationBin(g, c.x, c.y)
		out = append(out, Keypoint{
			X:          uint16(c.x),
			Y:          uint16(c.y),
			Angle:      uint8(bin),
			Response:   c.score,
			Descriptor: describe(g, c.x, c.y, bin),
		})
	}
	return out
}

// fastScore returns 0 when (x, y) fails the segment test, otherwise the sum
// of absolute differences beyond the threshold over the circle.
func fastScore(g *grayPlane, x, y, threshold int) float32 {
	center := g.at(x, y)
	hi, lo := center+threshold, center-threshold

	// Quick rejection on the four compass points: a 9-arc covers at least
	// two of them.
	brighter, darker := 0, 0
	for _, i := range [4]int{0, 4, 8, 12} {
		v := g.at(x+fastCircle[i][0], y+fastCircle[i][1])
		if v > hi {
			brighter++
		} else if v < lo {
			darker++
		}
	}
	if brighter < 2 && darker < 2 {
		return 0
	}

	var ring [16]int
	for i, off := range fastCircle {
		ring[i] = g.at(x+off[0], y+off[1])
	}
	if !hasArc(ring, func(v int) bool { return v > hi }) && !hasArc(ring, func(v int) bool { return v < lo }) {
		return 0
	}

	var sum int
	for _, v := range ring {
		d := v - center
		if d < 0 {
			d = -d
		}
		if d > threshold {
			sum += d - threshold
		}
	}
	return float32(sum)
}

func hasArc(ring [16]int, pass func(int) bool) bool {
	run := 0
	for i := 0; i < 16+fastArc-1; i++ {
		if pass(ring[i%16]) {
			run++
			if run >= fastArc {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

// isLocalMax keeps a corner when no 3x3 neighbour scores higher; on equal
// scores the earlier pixel in raster order wins.
func isLocalMax(scores []float32, w int, c corner) bool {
	idx := c.y*w + c.x
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := idx + dy*w + dx
			if scores[n] > c.score || (scores[n] == c.score && n < idx) {
				return false
			}
		}
	}
	return true
}

// orientationBin quantises the intensity-centroid angle of the patch.
func orientationBin(g *grayPlane, x, y int) int {
	var m10, m01 float64
	r2 := patchRadius * patchRadius
	for dy := -patchRadius; dy <= patchRadius; dy++ {
		for dx := -patchRadius; dx <= patchRadius; dx++ {
			if dx*dx+dy*dy > r2 {
				continue
			}
			v := float64(g.at(x+dx, y+dy))
			m10 += float64(dx) * v
			m01 += float64(dy) * v
		}
	}
	if m10 == 0 && m01 == 0 {
		return 0
	}
	angle := math.Atan2(m01, m10)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	bin := int(math.Round(angle / (2 * math.Pi / angleBins)))
	return bin % angleBins
}

func describe(g *grayPlane, x, y, bin int) Descriptor {
	var d Descriptor
	for i, p := range rotatedPatterns[bin] {
		a := g.boxSum(x+int(p.ax), y+int(p.ay), smoothRadius)
		b := g.boxSum(x+int(p.bx), y+int(p.by), smoothRadius)
		if a < b {
			d[i>>6] |= 1 << (uint(i) & 63)
		}
	}
	return d
}
