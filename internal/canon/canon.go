package canon

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/nfnt/resize"

	"cardsight/internal/services"
)

const (
	// DefaultWidth and DefaultHeight are the working resolution.
	DefaultWidth  = 224
	DefaultHeight = 312
	// DefaultCardAspect is width over height of a standard trading card
	// (63mm x 88mm).
	DefaultCardAspect = 0.716
	// MinCropSide is the smallest crop, in source pixels, that is still
	// worth fingerprinting.
	MinCropSide = 16
)

// Params fixes the canonical preprocessing.
type Params struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	CardAspect float64 `json:"card_aspect"`
}

// DefaultParams returns the standard working resolution and card aspect.
func DefaultParams() Params {
	return Params{Width: DefaultWidth, Height: DefaultHeight, CardAspect: DefaultCardAspect}
}

func (p Params) normalized() Params {
	d := DefaultParams()
	if p.Width <= 0 {
		p.Width = d.Width
	}
	if p.Height <= 0 {
		p.Height = d.Height
	}
	if p.CardAspect <= 0 || math.IsNaN(p.CardAspect) || math.IsInf(p.CardAspect, 0) {
		p.CardAspect = d.CardAspect
	}
	return p
}

// Canonicalize applies rotation, crop and resize. hint may be nil. The input
// image is never modified.
func Canonicalize(img image.Image, hint *CropHint, rotation Rotation, params Params) (*image.RGBA, error) {
	if img == nil {
		return nil, services.Wrap(services.ErrInvalidInput, "canon", "canonicalize", "nil image", nil)
	}
	if !rotation.Valid() {
		return nil, services.Wrap(services.ErrInvalidInput, "canon", "canonicalize", fmt.Sprintf("unsupported rotation %d", int(rotation)), nil)
	}
	params = params.normalized()

	var validated *CropHint
	if hint != nil {
		h, err := hint.Validate()
		if err != nil {
			return nil, err
		}
		h = h.upright(img.Bounds(), rotation)
		validated = &h
	}

	var upright image.Image = img
	if rotation != Rotate0 {
		upright = Rotate(img, rotation)
	}

	box := CropBox(upright.Bounds(), validated, params.CardAspect)
	if box.Dx() < MinCropSide || box.Dy() < MinCropSide {
		return nil, services.Wrap(services.ErrInvalidInput, "canon", "canonicalize",
			fmt.Sprintf("degenerate crop %dx%d", box.Dx(), box.Dy()), nil)
	}

	cropped := image.NewRGBA(image.Rect(0, 0, box.Dx(), box.Dy()))
	draw.Draw(cropped, cropped.Bounds(), upright, box.Min, draw.Src)

	resized := resize.Resize(uint(params.Width), uint(params.Height), cropped, resize.Bilinear)
	return toRGBA(resized), nil
}

// CropBox computes the crop rectangle inside bounds. With a hint the box is
// sized from Scale and centred on the hint; without one it is the largest
// centred box of the card aspect. The box is shifted and then trimmed to stay
// inside bounds, keeping the aspect ratio when trimming.
func CropBox(bounds image.Rectangle, hint *CropHint, aspect float64) image.Rectangle {
	fw, fh := float64(bounds.Dx()), float64(bounds.Dy())
	if fw <= 0 || fh <= 0 {
		return image.Rectangle{}
	}

	var w, h, cx, cy float64
	if hint != nil {
		w = hint.Scale * fw
		h = w / aspect
		cx, cy = hint.CenterX*fw, hint.CenterY*fh
	} else {
		if fw/fh > aspect {
			h = fh
			w = fh * aspect
		} else {
			w = fw
			h = fw / aspect
		}
		cx, cy = fw/2, fh/2
	}

	if w > fw {
		w = fw
		h = w / aspect
	}
	if h > fh {
		h = fh
		w = h * aspect
	}

	x0 := clamp(cx-w/2, 0, fw-w)
	y0 := clamp(cy-h/2, 0, fh-h)

	minX := bounds.Min.X + int(math.Round(x0))
	minY := bounds.Min.Y + int(math.Round(y0))
	rect := image.Rect(minX, minY, minX+int(math.Round(w)), minY+int(math.Round(h)))
	return rect.Intersect(bounds)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
