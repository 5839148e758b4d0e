package matcher

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BatchItem is the outcome of one query in a batch. Err carries per-query
// failures such as undecodable frames; it never aborts the batch.
type BatchItem struct {
	Result Result
	Err    error
}

// MatchBatch runs independent matches on at most workers goroutines and
// returns items in query order. Cancelling ctx stops the batch.
func (m *Matcher) MatchBatch(ctx context.Context, queries []Query, workers int) ([]BatchItem, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	items := make([]BatchItem, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range queries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			items[i].Result, items[i].Err = m.Match(gctx, queries[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
