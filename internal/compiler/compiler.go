package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"cardsight/internal/canon"
	"cardsight/internal/corpus"
	"cardsight/internal/fingerprint"
	"cardsight/internal/index"
	"cardsight/internal/logging"
	"cardsight/internal/services"
)

// ErrBuildInProgress is returned when another build holds the output lock.
var ErrBuildInProgress = errors.New("another index build is already writing this path")

const eventExtractionSkipped = "extraction_skipped"

type extraction struct {
	fp  fingerprint.Fingerprint
	err error
}

// skipped tags a per-card failure so callers can tell it apart from a
// failed compile.
func skipped(card corpus.Card, err error) error {
	return services.Wrap(services.ErrExtractionSkipped, "compiler", "extract", card.ID, err)
}

// Compile fingerprints every card in src and returns the in-memory index.
func Compile(ctx context.Context, src corpus.Source, opts Options) (*index.Index, Report, error) {
	opts = opts.normalized()
	start := opts.now()
	buildID := uuid.NewString()
	ctx = services.WithBuildID(ctx, buildID)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(opts.Logger, "compiler"))

	cards, err := src.Cards(ctx)
	if err != nil {
		return nil, Report{}, fmt.Errorf("list corpus: %w", err)
	}
	if opts.Limit > 0 && len(cards) > opts.Limit {
		cards = cards[:opts.Limit]
	}
	report := Report{BuildID: buildID, Total: len(cards)}
	logger.Info("compile started",
		logging.Int("cards", len(cards)),
		logging.Int("workers", opts.Workers),
		logging.Int("max_keypoints", opts.Params.MaxKeypoints),
	)

	results := make([]extraction, len(cards))
	seen := make(map[string]struct{}, len(cards))
	for i, card := range cards {
		if err := card.Validate(); err != nil {
			results[i].err = skipped(card, err)
			continue
		}
		if _, dup := seen[card.ID]; dup {
			results[i].err = skipped(card, fmt.Errorf("duplicate card id %q", card.ID))
			continue
		}
		seen[card.ID] = struct{}{}
	}

	extractor := fingerprint.NewExtractor(opts.Params)
	tracker := newProgress(logger, opts.Progress, len(cards))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := range cards {
		if results[i].err != nil {
			tracker.step()
			continue
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fp, err := extractCard(gctx, src, extractor, cards[i])
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				results[i].err = skipped(cards[i], err)
			} else {
				results[i].fp = fp
			}
			tracker.step()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Report{}, fmt.Errorf("compile aborted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, Report{}, fmt.Errorf("compile aborted: %w", err)
	}

	builder := index.NewBuilder(opts.ANN)
	for i, card := range cards {
		if err := results[i].err; err != nil {
			reason := err.Error()
			report.Skipped = append(report.Skipped, Skip{ID: card.ID, Name: card.Name, Reason: reason, Err: err})
			logging.WarnWithContext(logger, "card skipped", eventExtractionSkipped,
				logging.String(logging.FieldCardID, card.ID),
				logging.String("card", card.Name),
				logging.String("reason", reason),
				logging.String(logging.FieldErrorHint, "check the card record and its image"),
				logging.String(logging.FieldImpact, "card will not be matchable until the next compile"),
			)
			continue
		}
		if err := builder.Add(card, results[i].fp); err != nil {
			return nil, Report{}, err
		}
	}

	idx, err := builder.Build(index.Meta{
		BuildID: buildID,
		BuiltAt: start.UTC(),
		Source:  opts.Source,
		Params:  opts.Params,
		Skipped: len(report.Skipped),
	})
	if err != nil {
		return nil, Report{}, err
	}
	report.Indexed = idx.Len()
	report.Descriptors = idx.DescriptorCount()
	report.Duration = opts.now().Sub(start)

	logger.Info("compile finished",
		logging.Int("cards", report.Indexed),
		logging.Int("skipped", len(report.Skipped)),
		logging.Int("descriptors", report.Descriptors),
		logging.Duration("duration", report.Duration),
	)
	return idx, report, nil
}

// Build compiles src and writes the artifact to outPath. Only one build may
// write a given path at a time.
func Build(ctx context.Context, src corpus.Source, outPath string, opts Options) (Report, error) {
	if outPath == "" {
		return Report{}, services.Wrap(services.ErrInvalidInput, "compiler", "build", "output path is required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return Report{}, fmt.Errorf("create output directory: %w", err)
	}

	lock := flock.New(outPath + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return Report{}, fmt.Errorf("acquire build lock: %w", err)
	}
	if !ok {
		return Report{}, fmt.Errorf("%w: %s", ErrBuildInProgress, outPath)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	idx, report, err := Compile(ctx, src, opts)
	if err != nil {
		return Report{}, err
	}
	logger := logging.NewComponentLogger(opts.Logger, "compiler")
	digest, err := index.Save(outPath, idx)
	if err != nil {
		logging.ErrorWithContext(logger, "index write failed", "index_write_failed",
			logging.String(logging.FieldBuildID, report.BuildID),
			logging.String("index_path", outPath),
			logging.String(logging.FieldErrorHint, "check free space and permissions; the previous index is untouched"),
			logging.Error(err),
		)
		return Report{}, err
	}
	report.Path = outPath
	report.ArtifactBytes = digest.Size
	report.SHA256 = digest.SHA256

	logger.Info("index written",
		logging.String(logging.FieldBuildID, report.BuildID),
		logging.String("index_path", outPath),
		logging.Int64("artifact_bytes", digest.Size),
		logging.String("sha256", digest.SHA256),
	)
	return report, nil
}

func extractCard(ctx context.Context, src corpus.Source, extractor *fingerprint.Extractor, card corpus.Card) (fingerprint.Fingerprint, error) {
	data, err := corpus.ReadImage(ctx, src, card)
	if err != nil {
		return fingerprint.Fingerprint{}, err
	}
	return extractor.ExtractBytes(data, nil, canon.Rotate0)
}

type progress struct {
	mu       sync.Mutex
	done     int
	total    int
	sampler  *logging.ProgressSampler
	logger   *slog.Logger
	callback func(done, total int)
}

func newProgress(logger *slog.Logger, callback func(int, int), total int) *progress {
	return &progress{total: total, sampler: logging.NewProgressSampler(total, 10), logger: logger, callback: callback}
}

func (p *progress) step() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if p.callback != nil {
		p.callback(p.done, p.total)
	}
	if percent, ok := p.sampler.Observe(p.done); ok {
		p.logger.Info("compile progress",
			logging.String(logging.FieldStage, "extract"),
			logging.Int("done", p.done),
			logging.Int("total", p.total),
			logging.Float64("percent", percent),
		)
	}
}
