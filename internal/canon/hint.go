package canon

import (
	"fmt"
	"image"
	"math"

	"cardsight/internal/services"
)

const (
	// MinScale and MaxScale bound CropHint.Scale after clamping.
	MinScale = 0.05
	MaxScale = 1.0
)

// CropHint locates the card in the captured frame, before the rotation hint
// is applied. CenterX and CenterY are normalised to [0,1] of the captured
// frame; Scale is the upright card width over the captured frame width.
type CropHint struct {
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	Scale   float64 `json:"scale"`
}

// Validate rejects non-finite values and non-positive scales, and clamps
// finite out-of-range values into their legal ranges.
func (h CropHint) Validate() (CropHint, error) {
	for name, v := range map[string]float64{"center_x": h.CenterX, "center_y": h.CenterY, "scale": h.Scale} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return CropHint{}, services.Wrap(services.ErrInvalidInput, "canon", "crop hint", fmt.Sprintf("%s is not finite", name), nil)
		}
	}
	if h.Scale <= 0 {
		return CropHint{}, services.Wrap(services.ErrInvalidInput, "canon", "crop hint", fmt.Sprintf("scale must be positive, got %v", h.Scale), nil)
	}
	h.CenterX = clamp(h.CenterX, 0, 1)
	h.CenterY = clamp(h.CenterY, 0, 1)
	h.Scale = clamp(h.Scale, MinScale, MaxScale)
	return h, nil
}

// upright re-expresses a validated hint in the frame produced by rotating a
// captured frame of the given bounds by r.
func (h CropHint) upright(captured image.Rectangle, r Rotation) CropHint {
	h.CenterX, h.CenterY = mapCenter(h.CenterX, h.CenterY, r)
	if (r == Rotate90 || r == Rotate270) && captured.Dy() > 0 {
		// The rotated frame is as wide as the captured frame is tall.
		h.Scale *= float64(captured.Dx()) / float64(captured.Dy())
	}
	return h
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
