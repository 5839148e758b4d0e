package fingerprint

import "cardsight/internal/canon"

const (
	DefaultMaxKeypoints  = 300
	DefaultFASTThreshold = 20
)

// Params fixes every tunable of the extraction pipeline. The compiler stores
// the Params it used in the index; the matcher rebuilds its extractor from
// them.
type Params struct {
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	CardAspect    float64 `json:"card_aspect"`
	MaxKeypoints  int     `json:"max_keypoints"`
	FASTThreshold int     `json:"fast_threshold"`
}

// DefaultParams returns the standard extraction parameters.
func DefaultParams() Params {
	c := canon.DefaultParams()
	return Params{
		Width:         c.Width,
		Height:        c.Height,
		CardAspect:    c.CardAspect,
		MaxKeypoints:  DefaultMaxKeypoints,
		FASTThreshold: DefaultFASTThreshold,
	}
}

// Normalized returns p with zero or invalid fields replaced by defaults.
func (p Params) Normalized() Params {
	d := DefaultParams()
	if p.Width <= 0 {
		p.Width = d.Width
	}
	if p.Height <= 0 {
		p.Height = d.Height
	}
	if p.CardAspect <= 0 {
		p.CardAspect = d.CardAspect
	}
	if p.MaxKeypoints <= 0 {
		p.MaxKeypoints = d.MaxKeypoints
	}
	if p.FASTThreshold <= 0 || p.FASTThreshold > 255 {
		p.FASTThreshold = d.FASTThreshold
	}
	return p
}

// Canon returns the preprocessing subset of p.
func (p Params) Canon() canon.Params {
	return canon.Params{Width: p.Width, Height: p.Height, CardAspect: p.CardAspect}
}
