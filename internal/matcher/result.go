package matcher

import "cardsight/internal/corpus"

// Outcome classifies a match result.
type Outcome string

const (
	OutcomeConfident Outcome = "confident"
	OutcomeAmbiguous Outcome = "ambiguous"
	OutcomeEmpty     Outcome = "empty"
)

// Label is a coarse confidence bucket for display.
type Label string

const (
	LabelHigh   Label = "High"
	LabelMedium Label = "Medium"
	LabelLow    Label = "Low"
)

// LabelFor buckets a confidence value.
func LabelFor(confidence float64) Label {
	switch {
	case confidence >= 0.80:
		return LabelHigh
	case confidence >= 0.60:
		return LabelMedium
	default:
		return LabelLow
	}
}

// Candidate is one scored card.
type Candidate struct {
	Card             corpus.Card `json:"card"`
	Confidence       float64     `json:"confidence"`
	Label            Label       `json:"label"`
	HashDistance     int         `json:"hash_distance"`
	GeometricMatches int         `json:"geometric_matches"`
	GeometricScore   float64     `json:"geometric_score"`
	ColorSimilarity  float64     `json:"color_similarity"`
}

// Result is the answer to one query. Match is set only for confident
// results; Candidates only for ambiguous ones.
type Result struct {
	Outcome        Outcome     `json:"outcome"`
	Match          *Candidate  `json:"match,omitempty"`
	Candidates     []Candidate `json:"candidates,omitempty"`
	QueryKeypoints int         `json:"query_keypoints"`
	LowTexture     bool        `json:"low_texture,omitempty"`
	Examined       int         `json:"examined"`
	BuildID        string      `json:"build_id"`
}

// Best returns the confident match or the leading ambiguous candidate.
func (r Result) Best() (Candidate, bool) {
	if r.Match != nil {
		return *r.Match, true
	}
	if len(r.Candidates) > 0 {
		return r.Candidates[0], true
	}
	return Candidate{}, false
}
