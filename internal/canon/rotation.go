package canon

import (
	"fmt"
	"image"

	"cardsight/internal/services"
)

// Rotation is the clockwise rotation that brings the captured frame upright.
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// ParseRotation accepts 0, 90, 180 or 270 degrees; negative multiples of 90
// are normalised (-90 is 270).
func ParseRotation(degrees int) (Rotation, error) {
	normalized := ((degrees % 360) + 360) % 360
	if r := Rotation(normalized); r.Valid() {
		return r, nil
	}
	return Rotate0, services.Wrap(services.ErrInvalidInput, "canon", "parse rotation", fmt.Sprintf("unsupported rotation %d", degrees), nil)
}

// Valid reports whether r is one of the enumerated rotations.
func (r Rotation) Valid() bool {
	switch r {
	case Rotate0, Rotate90, Rotate180, Rotate270:
		return true
	}
	return false
}

func (r Rotation) String() string {
	return fmt.Sprintf("%d°", int(r))
}

// Rotate returns a rotated copy of img. Rotate0 still copies so the result
// never aliases the input.
func Rotate(img image.Image, r Rotation) *image.RGBA {
	src := toRGBA(img)
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	var dst *image.RGBA
	switch r {
	case Rotate90, Rotate270:
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
	default:
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	}

	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := 0; x < w; x++ {
			var dx, dy int
			switch r {
			case Rotate90:
				dx, dy = h-1-y, x
			case Rotate180:
				dx, dy = w-1-x, h-1-y
			case Rotate270:
				dx, dy = y, w-1-x
			default:
				dx, dy = x, y
			}
			off := dy*dst.Stride + dx*4
			copy(dst.Pix[off:off+4], row[x*4:x*4+4])
		}
	}
	return dst
}

// mapCenter moves a normalised point from the captured frame into the
// rotated frame.
func mapCenter(x, y float64, r Rotation) (float64, float64) {
	switch r {
	case Rotate90:
		return 1 - y, x
	case Rotate180:
		return 1 - x, 1 - y
	case Rotate270:
		return y, 1 - x
	default:
		return x, y
	}
}
