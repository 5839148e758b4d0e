package fingerprint

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"cardsight/internal/canon"
	"cardsight/internal/services"
)

// Extractor computes fingerprints with one fixed set of Params. It holds no
// mutable state and is safe for concurrent use.
type Extractor struct {
	params Params
}

// NewExtractor builds an extractor; zero fields of p take their defaults.
func NewExtractor(p Params) *Extractor {
	return &Extractor{params: p.Normalized()}
}

// Params returns the normalised parameters in use.
func (e *Extractor) Params() Params {
	return e.params
}

// Extract canonicalises img and fingerprints the result.
func (e *Extractor) Extract(img image.Image, hint *canon.CropHint, rotation canon.Rotation) (Fingerprint, error) {
	canonical, err := canon.Canonicalize(img, hint, rotation, e.params.Canon())
	if err != nil {
		return Fingerprint{}, err
	}
	return e.ExtractCanonical(canonical), nil
}

// ExtractBytes decodes a JPEG or PNG payload and fingerprints it.
func (e *Extractor) ExtractBytes(data []byte, hint *canon.CropHint, rotation canon.Rotation) (Fingerprint, error) {
	img, err := Decode(data)
	if err != nil {
		return Fingerprint{}, err
	}
	return e.Extract(img, hint, rotation)
}

// ExtractCanonical fingerprints an image that is already at the working
// resolution.
func (e *Extractor) ExtractCanonical(img *image.RGBA) Fingerprint {
	gray := newGrayPlane(img)
	return Fingerprint{
		Hash:      computePHash(gray.image()),
		Keypoints: detectKeypoints(gray, e.params.FASTThreshold, e.params.MaxKeypoints),
		Histogram: computeHistogram(img),
	}
}

// Decode decodes a JPEG or PNG payload, marking failures as invalid input.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, services.Wrap(services.ErrInvalidInput, "fingerprint", "decode", "empty image payload", nil)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidInput, "fingerprint", "decode", "undecodable image", err)
	}
	return img, nil
}
