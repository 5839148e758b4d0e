package matcher

import (
	"cmp"
	"context"
	"image"
	"log/slog"
	"math"
	"slices"
	"time"

	"cardsight/internal/canon"
	"cardsight/internal/fingerprint"
	"cardsight/internal/index"
	"cardsight/internal/logging"
)

// Query is one frame to identify.
type Query struct {
	Image    image.Image
	Crop     *canon.CropHint
	Rotation canon.Rotation
}

// Matcher serves matches from one immutable index.
type Matcher struct {
	idx       *index.Index
	policy    Policy
	extractor *fingerprint.Extractor
	logger    *slog.Logger
}

// New builds a matcher over idx. Queries are preprocessed with the
// parameters recorded in the index so they line up with compile time.
func New(idx *index.Index, policy Policy, logger *slog.Logger) *Matcher {
	return &Matcher{
		idx:       idx,
		policy:    policy.normalized(),
		extractor: fingerprint.NewExtractor(idx.Meta().Params),
		logger:    logging.NewComponentLogger(logger, "matcher"),
	}
}

// Index returns the served index.
func (m *Matcher) Index() *index.Index {
	return m.idx
}

// Policy returns the normalised policy.
func (m *Matcher) Policy() Policy {
	return m.policy
}

// Match identifies the card in q. Only malformed queries return an error; a
// frame with no recognisable card yields an ambiguous or empty Result.
func (m *Matcher) Match(ctx context.Context, q Query) (Result, error) {
	fp, err := m.extractor.Extract(q.Image, q.Crop, q.Rotation)
	if err != nil {
		return Result{}, err
	}
	return m.MatchFingerprint(ctx, fp), nil
}

// MatchBytes decodes a JPEG or PNG frame and matches it.
func (m *Matcher) MatchBytes(ctx context.Context, data []byte, crop *canon.CropHint, rotation canon.Rotation) (Result, error) {
	img, err := fingerprint.Decode(data)
	if err != nil {
		return Result{}, err
	}
	return m.Match(ctx, Query{Image: img, Crop: crop, Rotation: rotation})
}

// MatchFingerprint ranks the index against an already extracted query
// fingerprint.
func (m *Matcher) MatchFingerprint(ctx context.Context, query fingerprint.Fingerprint) Result {
	start := time.Now()
	result := Result{
		Outcome:        OutcomeEmpty,
		QueryKeypoints: len(query.Keypoints),
		LowTexture:     query.LowTexture(),
		BuildID:        m.idx.Meta().BuildID,
	}
	if m.idx.Len() == 0 {
		m.logResult(ctx, result, time.Since(start))
		return result
	}

	positions := m.coarse(query.Hash)
	result.Examined = len(positions)
	geometric := m.geometric(query, positions)

	scored := make([]scoredCandidate, len(positions))
	for i, pos := range positions {
		entry := m.idx.Entry(pos)
		c := Candidate{
			Card:             entry.Card,
			HashDistance:     fingerprint.Hamming(query.Hash, entry.Fingerprint.Hash),
			GeometricMatches: geometric[i],
			ColorSimilarity:  fingerprint.HistogramIntersection(query.Histogram, entry.Fingerprint.Histogram),
		}
		if denom := min(len(query.Keypoints), len(entry.Fingerprint.Keypoints)); denom > 0 {
			c.GeometricScore = math.Min(1, float64(c.GeometricMatches)/float64(denom))
		}
		c.Confidence = m.confidence(c, result.LowTexture)
		c.Label = LabelFor(c.Confidence)
		scored[i] = scoredCandidate{Candidate: c, pos: pos}
	}
	ranked := m.rank(scored)

	top := ranked[0]
	runnerUp := 0.0
	if len(ranked) > 1 {
		runnerUp = ranked[1].Confidence
	}
	if top.Confidence >= m.policy.AcceptThreshold && top.Confidence-runnerUp >= m.policy.AcceptMargin {
		match := top.Candidate
		result.Outcome = OutcomeConfident
		result.Match = &match
		m.logResult(ctx, result, time.Since(start))
		return result
	}

	for _, c := range ranked {
		if len(result.Candidates) == m.policy.TopK {
			break
		}
		if c.Confidence < m.policy.CandidateFloor {
			continue
		}
		result.Candidates = append(result.Candidates, c.Candidate)
	}
	if len(result.Candidates) > 0 {
		result.Outcome = OutcomeAmbiguous
	}
	m.logResult(ctx, result, time.Since(start))
	return result
}

type scoredCandidate struct {
	Candidate
	pos int
}

// coarse returns the CoarseCandidates index positions closest to hash,
// ordered by distance then corpus position.
func (m *Matcher) coarse(hash fingerprint.PHash) []int {
	var buckets [65][]int
	for i := 0; i < m.idx.Len(); i++ {
		d := fingerprint.Hamming(hash, m.idx.Hash(i))
		buckets[d] = append(buckets[d], i)
	}
	keep := min(m.policy.CoarseCandidates, m.idx.Len())
	out := make([]int, 0, keep)
	for _, bucket := range buckets {
		for _, pos := range bucket {
			if len(out) == keep {
				return out
			}
			out = append(out, pos)
		}
	}
	return out
}

// geometric counts, per candidate, the largest cluster of ratio-test
// accepted descriptor matches that agree on the query-to-card translation.
func (m *Matcher) geometric(query fingerprint.Fingerprint, positions []int) []int {
	counts := make([]int, len(positions))
	if len(query.Keypoints) == 0 {
		return counts
	}

	slot := make(map[int]int, len(positions))
	for i, pos := range positions {
		slot[pos] = i
	}

	const none = math.MaxInt
	best := make([]int, len(positions))
	second := make([]int, len(positions))
	bestKeypoint := make([]int, len(positions))
	for i := range best {
		best[i], second[i] = none, none
	}
	votes := make([]map[[2]int]int, len(positions))
	var touched []int
	var buf []uint32

	ann := m.idx.ANN()
	for _, qk := range query.Keypoints {
		buf = ann.Candidates(qk.Descriptor, buf)
		for _, ord := range buf {
			entry, keypoint := m.idx.Owner(ord)
			s, ok := slot[entry]
			if !ok {
				continue
			}
			d := qk.Descriptor.Distance(m.idx.Descriptor(ord))
			switch {
			case best[s] == none:
				touched = append(touched, s)
				best[s], bestKeypoint[s] = d, keypoint
			case d < best[s]:
				second[s] = best[s]
				best[s], bestKeypoint[s] = d, keypoint
			case d < second[s]:
				second[s] = d
			}
		}

		for _, s := range touched {
			if m.accept(best[s], second[s]) {
				ck := m.idx.Entry(positions[s]).Fingerprint.Keypoints[bestKeypoint[s]]
				bin := [2]int{
					floorDiv(int(qk.X)-int(ck.X), m.policy.OffsetBin),
					floorDiv(int(qk.Y)-int(ck.Y), m.policy.OffsetBin),
				}
				if votes[s] == nil {
					votes[s] = make(map[[2]int]int)
				}
				votes[s][bin]++
			}
			best[s], second[s] = none, none
		}
		touched = touched[:0]
	}

	for s, v := range votes {
		counts[s] = densestNeighbourhood(v)
	}
	return counts
}

func (m *Matcher) accept(best, second int) bool {
	if best > m.policy.MaxDescriptorDistance {
		return false
	}
	if second == math.MaxInt {
		return true
	}
	return float64(best) < m.policy.RatioTest*float64(second)
}

// densestNeighbourhood returns the largest vote total over any 3x3 block of
// offset bins.
func densestNeighbourhood(votes map[[2]int]int) int {
	bestTotal := 0
	for bin := range votes {
		total := 0
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				total += votes[[2]int{bin[0] + dx, bin[1] + dy}]
			}
		}
		bestTotal = max(bestTotal, total)
	}
	return bestTotal
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func (m *Matcher) confidence(c Candidate, lowTexture bool) float64 {
	hashScore := math.Max(0, 1-float64(c.HashDistance)/float64(m.policy.HashDistanceCeiling))
	p := m.policy
	if lowTexture {
		w := p.HashWeight + p.ColorWeight
		if w == 0 {
			return 0
		}
		conf := (p.HashWeight*hashScore + p.ColorWeight*c.ColorSimilarity) / w
		return math.Min(conf, p.LowTextureCeiling)
	}
	return p.HashWeight*hashScore + p.GeometricWeight*c.GeometricScore + p.ColorWeight*c.ColorSimilarity
}

// rank orders candidates by confidence. Runs of candidates whose successive
// confidences differ by less than TieEpsilon are reordered by colour
// similarity.
func (m *Matcher) rank(scored []scoredCandidate) []scoredCandidate {
	slices.SortFunc(scored, func(a, b scoredCandidate) int {
		if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
			return c
		}
		return cmp.Compare(a.pos, b.pos)
	})
	for start := 0; start < len(scored); {
		end := start + 1
		for end < len(scored) && scored[end-1].Confidence-scored[end].Confidence < m.policy.TieEpsilon {
			end++
		}
		if end-start > 1 {
			slices.SortStableFunc(scored[start:end], func(a, b scoredCandidate) int {
				return cmp.Compare(b.ColorSimilarity, a.ColorSimilarity)
			})
		}
		start = end
	}
	return scored
}

func (m *Matcher) logResult(ctx context.Context, r Result, elapsed time.Duration) {
	logger := logging.WithContext(ctx, m.logger)
	attrs := []logging.Attr{
		logging.String("outcome", string(r.Outcome)),
		logging.Int("query_keypoints", r.QueryKeypoints),
		logging.Int("examined", r.Examined),
		logging.Duration("latency", elapsed),
	}
	if best, ok := r.Best(); ok {
		attrs = append(attrs,
			logging.String(logging.FieldCardID, best.Card.ID),
			logging.String("card", best.Card.Name),
			logging.Float64("score", best.Confidence),
		)
	}
	if r.LowTexture {
		attrs = append(attrs, logging.Bool("low_texture", true))
	}
	logger.Debug("match completed", logging.Args(attrs...)...)
}
