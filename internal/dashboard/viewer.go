package dashboard

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned when a newer query replaced an in-flight one
// before it finished. It is a normal termination, not a failure.
var ErrSuperseded = errors.New("query superseded by a newer filter change")

// Viewer serializes dashboard queries for one viewing session with
// latest-wins semantics: starting a new query cancels the previous
// in-flight one, and only the most recent query's result is ever
// committed, even when an older fetch resolves later.
type Viewer struct {
	fetcher *Fetcher

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	current *Result
	query   Query
}

// NewViewer creates a viewer bound to a fetcher.
func NewViewer(f *Fetcher) *Viewer {
	return &Viewer{fetcher: f}
}

// Refresh runs a query, cancelling any fetch still in flight for this
// viewer. A superseded or cancelled fetch returns ErrSuperseded or the
// context error and leaves the committed result untouched.
func (v *Viewer) Refresh(ctx context.Context, q Query) (*Result, error) {
	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.gen++
	gen := v.gen
	v.mu.Unlock()

	res, err := v.fetcher.FetchRange(ctx, q)

	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.gen {
		return nil, ErrSuperseded
	}
	v.cancel = nil
	cancel()

	if err != nil {
		return nil, err
	}
	v.current = res
	v.query = q.normalize()
	return res, nil
}

// Current returns the last committed result and its query, or nil when
// nothing has been committed yet.
func (v *Viewer) Current() (*Result, Query) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current, v.query
}

// Viewers hands out one Viewer per session key, so each browser session
// gets its own latest-wins pipeline over the shared fetcher and caches.
type Viewers struct {
	fetcher *Fetcher

	mu   sync.Mutex
	byID map[string]*Viewer
}

// NewViewers creates the per-session viewer registry.
func NewViewers(f *Fetcher) *Viewers {
	return &Viewers{fetcher: f, byID: make(map[string]*Viewer)}
}

// For returns the viewer for a session key, creating it on first use.
func (vs *Viewers) For(id string) *Viewer {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	v, ok := vs.byID[id]
	if !ok {
		v = NewViewer(vs.fetcher)
		vs.byID[id] = v
	}
	return v
}
