package dashboard

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/daeun-oh/kihan/internal/dateutil"
	"github.com/daeun-oh/kihan/internal/model"
)

// mergeSummaries collapses per-day summary sets into one row per store.
// A store counts as entered if it was entered on any day in the range.
// Names are filled from the first day that provides them.
func mergeSummaries(perDay [][]model.SummaryRow) []model.SummaryRow {
	byStore := make(map[string]*model.SummaryRow)
	var order []string

	for _, rows := range perDay {
		for _, row := range rows {
			if row.StoreCode == "" {
				continue
			}
			merged, ok := byStore[row.StoreCode]
			if !ok {
				r := row
				byStore[row.StoreCode] = &r
				order = append(order, row.StoreCode)
				continue
			}
			if row.IsEntered.Set() {
				merged.IsEntered = 1
			}
			if merged.StoreName == "" {
				merged.StoreName = row.StoreName
			}
			if merged.RegionName == "" {
				merged.RegionName = row.RegionName
			}
			merged.TotalCnt += row.TotalCnt
		}
	}

	sort.Strings(order)
	result := make([]model.SummaryRow, 0, len(order))
	for _, code := range order {
		result = append(result, *byStore[code])
	}
	return result
}

// mergeItems concatenates per-day item sets, normalizing date fields to
// the canonical representation.
func mergeItems(perDay [][]model.ItemRow) []model.ItemRow {
	var result []model.ItemRow
	for _, rows := range perDay {
		for _, row := range rows {
			row.InputDate = dateutil.Normalize(row.InputDate)
			row.ExpiryDate = dateutil.Normalize(row.ExpiryDate)
			result = append(result, row)
		}
	}
	if result == nil {
		result = []model.ItemRow{}
	}
	return result
}

// applyViewFilter reapplies the scope filters to the merged items. The
// same filters were already sent upstream; this is deliberate
// double-filtering, tolerant of upstream filtering being inexact.
func applyViewFilter(items []model.ItemRow, q Query) []model.ItemRow {
	filtered := items[:0]
	for _, row := range items {
		if q.StoreCode != "" && row.StoreCode != q.StoreCode {
			continue
		}
		if q.StoreCode == "" && q.Region != "" && row.RegionName != q.Region {
			continue
		}
		if q.Category != "" && row.Category != q.Category {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}

// sortItems orders merged items: newest input date first, then store
// code, store name, category, and item name. Name fields compare with
// Korean collation.
func sortItems(items []model.ItemRow) {
	c := collate.New(language.Korean)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.InputDate != b.InputDate {
			return a.InputDate > b.InputDate
		}
		if a.StoreCode != b.StoreCode {
			return a.StoreCode < b.StoreCode
		}
		if n := c.CompareString(a.StoreName, b.StoreName); n != 0 {
			return n < 0
		}
		if n := c.CompareString(a.Category, b.Category); n != 0 {
			return n < 0
		}
		return c.CompareString(a.ItemName, b.ItemName) < 0
	})
}

// FilterOptions are the distinct values the dashboard filter controls
// offer, derived from the current result.
type FilterOptions struct {
	Regions    []string              `json:"regions"`
	Stores     []model.StoreIdentity `json:"stores"`
	Categories []string              `json:"categories"`
}

// Options derives the filter option lists from a result. Stores can be
// narrowed to one region; strings sort with Korean collation.
func Options(res *Result, region string) FilterOptions {
	c := collate.New(language.Korean)

	regionSet := make(map[string]struct{})
	storeSet := make(map[string]model.StoreIdentity)
	for _, row := range res.Summary {
		if row.RegionName != "" {
			regionSet[row.RegionName] = struct{}{}
		}
		if region != "" && row.RegionName != region {
			continue
		}
		if row.StoreCode != "" {
			storeSet[row.StoreCode] = model.StoreIdentity{
				StoreCode: row.StoreCode,
				StoreName: row.StoreName,
			}
		}
	}

	categorySet := make(map[string]struct{})
	for _, row := range res.Items {
		if row.Category != "" {
			categorySet[row.Category] = struct{}{}
		}
	}

	opts := FilterOptions{}
	for r := range regionSet {
		opts.Regions = append(opts.Regions, r)
	}
	c.SortStrings(opts.Regions)

	for _, s := range storeSet {
		opts.Stores = append(opts.Stores, s)
	}
	sort.Slice(opts.Stores, func(i, j int) bool {
		return opts.Stores[i].StoreCode < opts.Stores[j].StoreCode
	})

	for cat := range categorySet {
		opts.Categories = append(opts.Categories, cat)
	}
	c.SortStrings(opts.Categories)

	return opts
}
