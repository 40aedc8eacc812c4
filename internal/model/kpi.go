package model

import "strings"

// MaxRangeDays is the advisory cap on dashboard range queries. Exceeding
// it warns the user once per distinct range but does not block the query.
const MaxRangeDays = 7

// KPI holds the dashboard headline numbers for one merged query result.
type KPI struct {
	TotalStores      int `json:"total_stores"`
	EnteredStores    int `json:"entered_stores"`
	NotEnteredStores int `json:"not_entered_stores"`
	InputRows        int `json:"input_rows"`
}

// ComputeKPI derives the headline numbers from a merged summary set and
// the currently displayed (already filtered) item rows.
//
// NotEnteredStores is derived rather than counted so that
// entered + not-entered == total always holds, even when merged days
// report inconsistent entered-state for a store.
func ComputeKPI(summary []SummaryRow, displayedItems int) KPI {
	stores := make(map[string]struct{})
	entered := 0
	for _, row := range summary {
		code := strings.TrimSpace(row.StoreCode)
		if code == "" {
			continue
		}
		stores[code] = struct{}{}
		if row.IsEntered.Set() {
			entered++
		}
	}

	total := len(stores)
	notEntered := total - entered
	if notEntered < 0 {
		notEntered = 0
	}

	return KPI{
		TotalStores:      total,
		EnteredStores:    entered,
		NotEnteredStores: notEntered,
		InputRows:        displayedItems,
	}
}
