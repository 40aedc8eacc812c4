package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/daeun-oh/kihan/internal/model"
)

// fakeUpstream serves canned per-day rows and counts calls.
type fakeUpstream struct {
	mu           sync.Mutex
	summaryCalls int
	itemCalls    int
	summaries    map[string][]model.SummaryRow
	items        map[string][]model.ItemRow
	failDates    map[string]error

	// blockRegion makes requests for that region park until the
	// context is cancelled, to simulate a slow in-flight fetch.
	blockRegion string
	started     chan struct{}
}

func (f *fakeUpstream) Summary(ctx context.Context, date, region, storeCode string) ([]model.SummaryRow, error) {
	f.mu.Lock()
	f.summaryCalls++
	f.mu.Unlock()

	if f.blockRegion != "" && region == f.blockRegion {
		if f.started != nil {
			select {
			case f.started <- struct{}{}:
			default:
			}
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err, ok := f.failDates[date]; ok {
		return nil, err
	}
	return f.summaries[date], nil
}

func (f *fakeUpstream) Items(ctx context.Context, date, region, storeCode, category string) ([]model.ItemRow, error) {
	f.mu.Lock()
	f.itemCalls++
	f.mu.Unlock()

	if f.blockRegion != "" && region == f.blockRegion {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err, ok := f.failDates[date]; ok {
		return nil, err
	}
	return f.items[date], nil
}

func (f *fakeUpstream) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summaryCalls, f.itemCalls
}

func threeDayUpstream() *fakeUpstream {
	return &fakeUpstream{
		summaries: map[string][]model.SummaryRow{
			"2026-01-01": {{StoreCode: "1410001", StoreName: "강남점", RegionName: "서울", IsEntered: 0}},
			"2026-01-02": {{StoreCode: "1410001", StoreName: "강남점", RegionName: "서울", IsEntered: 1}},
			"2026-01-03": {{StoreCode: "1410002", StoreName: "부산점", RegionName: "부산", IsEntered: 0}},
		},
		items: map[string][]model.ItemRow{
			"2026-01-01": {{StoreCode: "1410001", Category: "냉동", ItemName: "치킨 패티", ExpiryDate: "2026-01-20"}},
			"2026-01-03": {{StoreCode: "1410002", Category: "냉장", ItemName: "소스", ExpiryDate: "2026-01-10"}},
		},
	}
}

func TestFetchRangeFansOutPerDay(t *testing.T) {
	up := threeDayUpstream()
	f := NewFetcher(up)

	res, err := f.FetchRange(context.Background(), Query{Start: "2026-01-01", End: "2026-01-03"})
	if err != nil {
		t.Fatalf("FetchRange: %v", err)
	}

	sCalls, iCalls := up.calls()
	if sCalls != 3 || iCalls != 3 {
		t.Errorf("expected 3 request pairs, got %d summary / %d item calls", sCalls, iCalls)
	}
	if len(res.Days) != 3 {
		t.Errorf("expected 3 days, got %v", res.Days)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 merged items, got %d", len(res.Items))
	}
	// Newest input date first.
	if res.Items[0].InputDate != "2026-01-03" {
		t.Errorf("expected 2026-01-03 rows first, got %q", res.Items[0].InputDate)
	}
}

func TestFetchRangeInjectsInputDate(t *testing.T) {
	up := threeDayUpstream()
	f := NewFetcher(up)

	res, err := f.FetchRange(context.Background(), Query{Start: "2026-01-01", End: "2026-01-01"})
	if err != nil {
		t.Fatalf("FetchRange: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].InputDate != "2026-01-01" {
		t.Errorf("expected injected input date, got %+v", res.Items)
	}
}

func TestMergedSummaryORsEnteredFlag(t *testing.T) {
	up := threeDayUpstream()
	f := NewFetcher(up)

	res, err := f.FetchRange(context.Background(), Query{Start: "2026-01-01", End: "2026-01-02"})
	if err != nil {
		t.Fatalf("FetchRange: %v", err)
	}
	if len(res.Summary) != 1 {
		t.Fatalf("expected 1 merged store, got %d", len(res.Summary))
	}
	// Entered on day 2, not on day 1: the merged row must be entered.
	if !res.Summary[0].IsEntered.Set() {
		t.Error("expected merged is_entered=1 (OR semantics)")
	}
	if res.Summary[0].StoreName != "강남점" {
		t.Errorf("expected store name from first providing day, got %q", res.Summary[0].StoreName)
	}
}

func TestRepeatQueryHitsRangeCache(t *testing.T) {
	up := threeDayUpstream()
	f := NewFetcher(up)
	q := Query{Start: "2026-01-01", End: "2026-01-03"}

	if _, err := f.FetchRange(context.Background(), q); err != nil {
		t.Fatal(err)
	}
	s1, i1 := up.calls()

	if _, err := f.FetchRange(context.Background(), q); err != nil {
		t.Fatal(err)
	}
	s2, i2 := up.calls()

	if s2 != s1 || i2 != i1 {
		t.Errorf("identical query must not hit the network again: %d/%d -> %d/%d", s1, i1, s2, i2)
	}
}

func TestWidenedRangeReusesFetchedDays(t *testing.T) {
	up := threeDayUpstream()
	f := NewFetcher(up)

	if _, err := f.FetchRange(context.Background(), Query{Start: "2026-01-01", End: "2026-01-02"}); err != nil {
		t.Fatal(err)
	}
	s1, _ := up.calls()
	if s1 != 2 {
		t.Fatalf("expected 2 summary calls, got %d", s1)
	}

	// Widening by one day should only fetch the new day.
	if _, err := f.FetchRange(context.Background(), Query{Start: "2026-01-01", End: "2026-01-03"}); err != nil {
		t.Fatal(err)
	}
	s2, _ := up.calls()
	if s2 != 3 {
		t.Errorf("expected 1 extra summary call for the new day, got %d total", s2)
	}
}

func TestReversedRangeIsNormalized(t *testing.T) {
	up := threeDayUpstream()
	f := NewFetcher(up)

	res, err := f.FetchRange(context.Background(), Query{Start: "2026-01-03", End: "2026-01-01"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Days) != 3 || res.Days[0] != "2026-01-01" {
		t.Errorf("expected normalized 3-day range, got %v", res.Days)
	}
}

func TestPerDayFailureDegradesToEmptyDay(t *testing.T) {
	up := threeDayUpstream()
	f := NewFetcher(up)

	// Upstream absorbs bad payloads into empty rows itself; here a day
	// simply has no data, which must not abort the aggregate.
	res, err := f.FetchRange(context.Background(), Query{Start: "2026-01-01", End: "2026-01-02"})
	if err != nil {
		t.Fatalf("FetchRange: %v", err)
	}
	if len(res.Items) != 1 {
		t.Errorf("expected the one available day's items, got %d", len(res.Items))
	}
}

func TestTransportFailureClearsResult(t *testing.T) {
	up := threeDayUpstream()
	up.failDates = map[string]error{"2026-01-02": errors.New("connection refused")}
	f := NewFetcher(up)

	res, err := f.FetchRange(context.Background(), Query{Start: "2026-01-01", End: "2026-01-03"})
	if err != nil {
		t.Fatalf("transport failure must not surface as an error: %v", err)
	}
	if len(res.Summary) != 0 || len(res.Items) != 0 {
		t.Errorf("expected cleared result, got %d summary / %d items", len(res.Summary), len(res.Items))
	}
}

func TestAdvisoryOncePerDistinctRange(t *testing.T) {
	up := threeDayUpstream()
	f := NewFetcher(up)
	q := Query{Start: "2026-01-01", End: "2026-01-10"}

	res1, err := f.FetchRange(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if !res1.Advisory {
		t.Error("expected advisory on first over-cap query")
	}
	if len(res1.Days) != 10 {
		t.Errorf("over-cap query must still proceed, got %d days", len(res1.Days))
	}

	res2, err := f.FetchRange(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if res2.Advisory {
		t.Error("advisory must not repeat for the same range")
	}
}

func TestStorePrecedenceInViewFilter(t *testing.T) {
	up := &fakeUpstream{
		summaries: map[string][]model.SummaryRow{
			"2026-01-01": {{StoreCode: "1410001", RegionName: "서울"}},
		},
		items: map[string][]model.ItemRow{
			"2026-01-01": {
				{StoreCode: "1410001", RegionName: "부산", Category: "냉동", ItemName: "패티"},
				{StoreCode: "1410002", RegionName: "서울", Category: "냉동", ItemName: "소스"},
			},
		},
	}
	f := NewFetcher(up)

	// With a store selected, region must be ignored entirely.
	res, err := f.FetchRange(context.Background(), Query{
		Start: "2026-01-01", End: "2026-01-01",
		Region: "서울", StoreCode: "1410001",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 1 || res.Items[0].StoreCode != "1410001" {
		t.Errorf("expected only the selected store's rows, got %+v", res.Items)
	}
}
