// Package dashboard implements the range fetch and aggregation engine:
// the upstream API only answers single-day queries, so a date-range query
// fans out into per-day requests whose results are cached, merged, sorted,
// and reduced to KPIs as if the whole range had been queried at once.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	"github.com/daeun-oh/kihan/internal/dateutil"
	"github.com/daeun-oh/kihan/internal/model"
)

// Upstream is the slice of the inventory API client the engine needs.
type Upstream interface {
	Summary(ctx context.Context, date, region, storeCode string) ([]model.SummaryRow, error)
	Items(ctx context.Context, date, region, storeCode, category string) ([]model.ItemRow, error)
}

// Query is one dashboard request: a date range plus optional scope
// filters. A set StoreCode takes precedence over Region.
type Query struct {
	Start     string
	End       string
	Region    string
	StoreCode string
	Category  string
}

// normalize orders the range bounds and trims the scope.
func (q Query) normalize() Query {
	q.Start, q.End = dateutil.OrderRange(q.Start, q.End)
	return q
}

// key serializes the full filter tuple for the range cache.
func (q Query) key() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s", q.Start, q.End, q.Region, q.StoreCode, q.Category)
}

// rangeKey identifies the (start,end) pair alone, for advisory dedup.
func (q Query) rangeKey() string {
	return q.Start + "|" + q.End
}

// Result is a merged range query result.
type Result struct {
	Summary []model.SummaryRow `json:"summary"`
	Items   []model.ItemRow    `json:"items"`
	KPI     model.KPI          `json:"kpi"`
	Days    []string           `json:"days"`
	// Advisory is set the first time a distinct range exceeds the
	// 7-day cap. The query proceeds regardless.
	Advisory bool `json:"advisory,omitempty"`
}

const (
	// fetchConcurrency caps simultaneous upstream requests within one
	// range fetch. A 7-day range needs 14 requests; unbounded fan-out
	// has overwhelmed the upstream API before.
	fetchConcurrency = 4

	dayCacheSize   = 512
	rangeCacheSize = 128
	cacheTTL       = 5 * time.Minute
)

// Fetcher runs range queries against an upstream client, with per-day and
// whole-range caching. Both caches are bounded LRUs with a TTL, so a
// long-lived process does not accumulate stale query results.
type Fetcher struct {
	upstream Upstream

	daySummaries *expirable.LRU[string, []model.SummaryRow]
	dayItems     *expirable.LRU[string, []model.ItemRow]
	ranges       *expirable.LRU[string, *Result]

	mu     sync.Mutex
	warned map[string]bool
}

// NewFetcher creates a Fetcher with default cache sizing.
func NewFetcher(u Upstream) *Fetcher {
	return &Fetcher{
		upstream:     u,
		daySummaries: expirable.NewLRU[string, []model.SummaryRow](dayCacheSize, nil, cacheTTL),
		dayItems:     expirable.NewLRU[string, []model.ItemRow](dayCacheSize, nil, cacheTTL),
		ranges:       expirable.NewLRU[string, *Result](rangeCacheSize, nil, cacheTTL),
	}
}

// FetchRange answers a dashboard query over an inclusive date range.
//
// Per-day request failures degrade to empty days and never abort the
// aggregate. A transport failure at any point clears the whole result to
// empty instead of returning a partial view. Cancellation returns ctx.Err()
// and commits nothing to the caches.
func (f *Fetcher) FetchRange(ctx context.Context, q Query) (*Result, error) {
	q = q.normalize()
	days := dateutil.RangeDays(q.Start, q.End)
	advisory := len(days) > model.MaxRangeDays && f.firstWarning(q.rangeKey())

	if cached, ok := f.ranges.Get(q.key()); ok {
		res := *cached
		res.Advisory = advisory
		return &res, nil
	}

	summaries := make([][]model.SummaryRow, len(days))
	items := make([][]model.ItemRow, len(days))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for i, day := range days {
		sKey := fmt.Sprintf("%s|%s|%s", day, q.Region, q.StoreCode)
		iKey := sKey + "|" + q.Category

		if rows, ok := f.daySummaries.Get(sKey); ok {
			summaries[i] = rows
		} else {
			g.Go(func() error {
				rows, err := f.upstream.Summary(gctx, day, q.Region, q.StoreCode)
				if err != nil {
					return err
				}
				summaries[i] = rows
				f.daySummaries.Add(sKey, rows)
				return nil
			})
		}

		if rows, ok := f.dayItems.Get(iKey); ok {
			items[i] = rows
		} else {
			g.Go(func() error {
				rows, err := f.upstream.Items(gctx, day, q.Region, q.StoreCode, q.Category)
				if err != nil {
					return err
				}
				for j := range rows {
					if rows[j].InputDate == "" {
						rows[j].InputDate = day
					}
				}
				items[i] = rows
				f.dayItems.Add(iKey, rows)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			if cause := context.Cause(ctx); cause != nil {
				return nil, cause
			}
			return nil, err
		}
		// Network failure: clear the display rather than show a
		// partial or stale range. Not cached.
		slog.Error("range fetch failed", "start", q.Start, "end", q.End, "error", err)
		return &Result{
			Summary:  []model.SummaryRow{},
			Items:    []model.ItemRow{},
			Days:     days,
			Advisory: advisory,
		}, nil
	}

	result := &Result{
		Summary: mergeSummaries(summaries),
		Items:   mergeItems(items),
		Days:    days,
	}
	result.Items = applyViewFilter(result.Items, q)
	sortItems(result.Items)
	result.KPI = model.ComputeKPI(result.Summary, len(result.Items))

	f.ranges.Add(q.key(), result)

	res := *result
	res.Advisory = advisory
	return &res, nil
}

// firstWarning reports whether this distinct range has not warned yet,
// and marks it.
func (f *Fetcher) firstWarning(rangeKey string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.warned == nil {
		f.warned = make(map[string]bool)
	}
	if f.warned[rangeKey] {
		return false
	}
	f.warned[rangeKey] = true
	return true
}
