package matcher

import (
	"context"
	"sync/atomic"

	"cardsight/internal/services"
)

// Holder publishes the serving Matcher. Swap replaces it atomically;
// matches already running keep the matcher they started with.
type Holder struct {
	current atomic.Pointer[Matcher]
}

// NewHolder returns a holder serving m, which may be nil.
func NewHolder(m *Matcher) *Holder {
	h := &Holder{}
	if m != nil {
		h.current.Store(m)
	}
	return h
}

// Load returns the serving matcher or nil.
func (h *Holder) Load() *Matcher {
	return h.current.Load()
}

// Swap installs m and returns the previous matcher.
func (h *Holder) Swap(m *Matcher) *Matcher {
	return h.current.Swap(m)
}

// Match delegates to the serving matcher.
func (h *Holder) Match(ctx context.Context, q Query) (Result, error) {
	m := h.current.Load()
	if m == nil {
		return Result{}, services.Wrap(services.ErrIndexUnavailable, "matcher", "match", "no index loaded", nil)
	}
	return m.Match(ctx, q)
}
