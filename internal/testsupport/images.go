package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"math"
	"math/rand/v2"
	"testing"
)

const (
	// CardWidth and CardHeight match a 63x88 card scanned at ~196 dpi.
	CardWidth  = 488
	CardHeight = 680
)

// CardImage renders a deterministic synthetic card: a gradient frame, a
// title bar, an art box of random shapes and a text box of word bars. Distinct
// seeds give visually distinct cards.
func CardImage(seed uint64) *image.RGBA {
	rng := rand.New(rand.NewPCG(seed, 0x636172647369))
	img := image.NewRGBA(image.Rect(0, 0, CardWidth, CardHeight))

	top, bottom := randomColor(rng), randomColor(rng)
	for y := 0; y < CardHeight; y++ {
		t := float64(y) / float64(CardHeight-1)
		c := color.RGBA{
			R: lerp(top.R, bottom.R, t),
			G: lerp(top.G, bottom.G, t),
			B: lerp(top.B, bottom.B, t),
			A: 255,
		}
		for x := 0; x < CardWidth; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	fill(img, image.Rect(0, 0, CardWidth, 14), color.RGBA{A: 255})
	fill(img, image.Rect(0, CardHeight-14, CardWidth, CardHeight), color.RGBA{A: 255})
	fill(img, image.Rect(0, 0, 14, CardHeight), color.RGBA{A: 255})
	fill(img, image.Rect(CardWidth-14, 0, CardWidth, CardHeight), color.RGBA{A: 255})

	title := image.Rect(36, 30, CardWidth-36, 70)
	fill(img, title, color.RGBA{R: 235, G: 228, B: 210, A: 255})
	wordBars(img, rng, title.Inset(8), 14, 1)

	art := image.Rect(36, 86, CardWidth-36, 390)
	fill(img, art, randomColor(rng))
	for i := 0; i < 14; i++ {
		w, h := 20+rng.IntN(140), 20+rng.IntN(120)
		x, y := art.Min.X+rng.IntN(art.Dx()-w), art.Min.Y+rng.IntN(art.Dy()-h)
		fill(img, image.Rect(x, y, x+w, y+h), randomColor(rng))
	}
	for i := 0; i < 6; i++ {
		r := 10 + rng.IntN(40)
		cx, cy := art.Min.X+r+rng.IntN(art.Dx()-2*r), art.Min.Y+r+rng.IntN(art.Dy()-2*r)
		disc(img, cx, cy, r, randomColor(rng))
	}

	text := image.Rect(36, 410, CardWidth-36, CardHeight-40)
	fill(img, text, color.RGBA{R: 240, G: 236, B: 222, A: 255})
	wordBars(img, rng, text.Inset(12), 10, 8)
	return img
}

// OcclusionBlock returns the rectangle Occlude covers: a block with the
// image's aspect and the given fraction of its area, placed by seed.
func OcclusionBlock(bounds image.Rectangle, fraction float64, seed uint64) image.Rectangle {
	bw := int(float64(bounds.Dx()) * math.Sqrt(fraction))
	bh := int(float64(bounds.Dy()) * math.Sqrt(fraction))
	rng := rand.New(rand.NewPCG(seed, 0x6f63636c756465))
	x := bounds.Min.X + rng.IntN(bounds.Dx()-bw+1)
	y := bounds.Min.Y + rng.IntN(bounds.Dy()-bh+1)
	return image.Rect(x, y, x+bw, y+bh)
}

// Occlude covers a seeded position of img with a flat grey block whose area
// is the given fraction of the image.
func Occlude(img image.Image, fraction float64, seed uint64) *image.RGBA {
	out := clone(img)
	fill(out, OcclusionBlock(out.Bounds(), fraction, seed), color.RGBA{R: 128, G: 128, B: 128, A: 255})
	return out
}

// NoiseImage returns uniform random RGB noise.
func NoiseImage(seed uint64, w, h int) *image.RGBA {
	rng := rand.New(rand.NewPCG(seed, 0x6e6f697365))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.IntN(256))
		img.Pix[i+1] = uint8(rng.IntN(256))
		img.Pix[i+2] = uint8(rng.IntN(256))
		img.Pix[i+3] = 255
	}
	return img
}

// FlatImage returns a single-colour image with no texture at all.
func FlatImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(img, img.Bounds(), c)
	return img
}

// Frame places card on a larger background at (x, y), simulating a camera
// frame with the card somewhere inside it.
func Frame(card image.Image, w, h, x, y int) *image.RGBA {
	frame := FlatImage(w, h, color.RGBA{R: 40, G: 60, B: 40, A: 255})
	cb := card.Bounds()
	draw.Draw(frame, image.Rect(x, y, x+cb.Dx(), y+cb.Dy()), card, cb.Min, draw.Src)
	return frame
}

// EncodePNG encodes img as PNG, failing the test on error.
func EncodePNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// EncodeJPEG encodes img as JPEG at the given quality.
func EncodeJPEG(t testing.TB, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func wordBars(img *image.RGBA, rng *rand.Rand, area image.Rectangle, barHeight, lines int) {
	ink := color.RGBA{R: 30, G: 24, B: 20, A: 255}
	lineStep := barHeight * 2
	for line := 0; line < lines; line++ {
		y := area.Min.Y + line*lineStep
		if y+barHeight > area.Max.Y {
			return
		}
		x := area.Min.X
		for {
			w := 12 + rng.IntN(50)
			if x+w > area.Max.X {
				break
			}
			fill(img, image.Rect(x, y, x+w, y+barHeight), ink)
			x += w + 6 + rng.IntN(6)
		}
	}
}

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func disc(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			if (x-cx)*(x-cx)+(y-cy)*(y-cy) <= r*r {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

func randomColor(rng *rand.Rand) color.RGBA {
	return color.RGBA{R: uint8(rng.IntN(256)), G: uint8(rng.IntN(256)), B: uint8(rng.IntN(256)), A: 255}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

func clone(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
