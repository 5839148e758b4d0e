package matcher

import "cardsight/internal/config"

// Policy holds the ranking weights and acceptance thresholds.
type Policy struct {
	CoarseCandidates      int
	TopK                  int
	AcceptThreshold       float64
	AcceptMargin          float64
	HashWeight            float64
	GeometricWeight       float64
	ColorWeight           float64
	HashDistanceCeiling   int
	RatioTest             float64
	MaxDescriptorDistance int
	OffsetBin             int
	LowTextureCeiling     float64
	CandidateFloor        float64
	TieEpsilon            float64
}

// DefaultPolicy returns defaults tuned on phone-camera captures of printed
// cards at the default working resolution.
func DefaultPolicy() Policy {
	return Policy{
		CoarseCandidates:      200,
		TopK:                  5,
		AcceptThreshold:       0.60,
		AcceptMargin:          0.10,
		HashWeight:            0.35,
		GeometricWeight:       0.50,
		ColorWeight:           0.15,
		HashDistanceCeiling:   32,
		RatioTest:             0.80,
		MaxDescriptorDistance: 64,
		OffsetBin:             16,
		LowTextureCeiling:     0.55,
		CandidateFloor:        0.05,
		TieEpsilon:            0.02,
	}
}

// PolicyFromConfig maps the [matcher] section; unset values take defaults.
func PolicyFromConfig(m config.Matcher) Policy {
	p := DefaultPolicy()
	p.CoarseCandidates = m.CoarseCandidates
	p.TopK = m.TopK
	p.AcceptThreshold = m.AcceptThreshold
	p.AcceptMargin = m.AcceptMargin
	p.HashWeight = m.HashWeight
	p.GeometricWeight = m.GeometricWeight
	p.ColorWeight = m.ColorWeight
	p.HashDistanceCeiling = m.HashDistanceCeiling
	p.RatioTest = m.RatioTest
	p.MaxDescriptorDistance = m.MaxDescriptorDistance
	p.OffsetBin = m.OffsetBin
	p.LowTextureCeiling = m.LowTextureCeiling
	p.CandidateFloor = m.CandidateFloor
	p.TieEpsilon = m.TieEpsilon
	return p.normalized()
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()

	if p.CoarseCandidates <= 0 {
		p.CoarseCandidates = d.CoarseCandidates
	}
	if p.TopK <= 0 {
		p.TopK = d.TopK
	}
	if p.AcceptThreshold <= 0 || p.AcceptThreshold > 1 {
		p.AcceptThreshold = d.AcceptThreshold
	}
	if p.AcceptMargin <= 0 || p.AcceptMargin >= 1 {
		p.AcceptMargin = d.AcceptMargin
	}
	if p.HashWeight < 0 || p.GeometricWeight < 0 || p.ColorWeight < 0 ||
		p.HashWeight+p.GeometricWeight+p.ColorWeight == 0 {
		p.HashWeight, p.GeometricWeight, p.ColorWeight = d.HashWeight, d.GeometricWeight, d.ColorWeight
	}
	sum := p.HashWeight + p.GeometricWeight + p.ColorWeight
	p.HashWeight /= sum
	p.GeometricWeight /= sum
	p.ColorWeight /= sum
	if p.HashDistanceCeiling <= 0 || p.HashDistanceCeiling > 64 {
		p.HashDistanceCeiling = d.HashDistanceCeiling
	}
	if p.RatioTest <= 0 || p.RatioTest > 1 {
		p.RatioTest = d.RatioTest
	}
	if p.MaxDescriptorDistance <= 0 || p.MaxDescriptorDistance > 256 {
		p.MaxDescriptorDistance = d.MaxDescriptorDistance
	}
	if p.OffsetBin <= 0 {
		p.OffsetBin = d.OffsetBin
	}
	if p.LowTextureCeiling <= 0 || p.LowTextureCeiling > 1 {
		p.LowTextureCeiling = d.LowTextureCeiling
	}
	if p.CandidateFloor <= 0 || p.CandidateFloor >= 1 {
		p.CandidateFloor = d.CandidateFloor
	}
	if p.TieEpsilon <= 0 || p.TieEpsilon >= 0.5 {
		p.TieEpsilon = d.TieEpsilon
	}

	return p
}
