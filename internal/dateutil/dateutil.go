// Package dateutil handles calendar-date arithmetic and the normalization
// of the loosely formatted date strings the upstream inventory API returns.
package dateutil

import (
	"fmt"
	"regexp"
	"time"
)

// Layout is the canonical date format used everywhere in the service.
const Layout = "2006-01-02"

// kst is the fixed store timezone. All "today" decisions are made in KST
// regardless of where the server runs.
var kst = time.FixedZone("KST", 9*60*60)

var ymdPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// parseLayouts are tried in order when a value carries no embedded
// YYYY-MM-DD substring. The upstream API has been seen returning RFC1123
// timestamps for expiry dates.
var parseLayouts = []string{
	time.RFC3339,
	time.RFC1123,
	time.RFC1123Z,
	time.RFC850,
	time.ANSIC,
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// Today returns the current date in KST as YYYY-MM-DD.
func Today() string {
	return time.Now().In(kst).Format(Layout)
}

// Normalize coerces an arbitrary date representation to YYYY-MM-DD.
// Priority: an embedded YYYY-MM-DD substring, then general date parsing,
// then the first 10 characters of the raw input. Idempotent.
func Normalize(v string) string {
	if v == "" {
		return ""
	}

	if m := ymdPattern.FindString(v); m != "" {
		return m
	}

	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(Layout)
		}
	}

	if len(v) > 10 {
		return v[:10]
	}
	return v
}

// Parse parses a canonical YYYY-MM-DD string.
func Parse(ymd string) (time.Time, error) {
	t, err := time.Parse(Layout, ymd)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", ymd, err)
	}
	return t, nil
}

// AddDays shifts a YYYY-MM-DD date by n calendar days. Invalid input is
// returned unchanged.
func AddDays(ymd string, n int) string {
	t, err := Parse(Normalize(ymd))
	if err != nil {
		return ymd
	}
	return t.AddDate(0, 0, n).Format(Layout)
}

// OrderRange normalizes a start/end pair so that start <= end, swapping
// when the caller passed them in reverse.
func OrderRange(start, end string) (string, string) {
	start, end = Normalize(start), Normalize(end)
	if start > end {
		start, end = end, start
	}
	return start, end
}

// DiffDaysInclusive returns the inclusive calendar-day count of a range,
// after ordering. Same-day ranges count as 1. Unparseable input counts as 1.
func DiffDaysInclusive(start, end string) int {
	return len(RangeDays(start, end))
}

// RangeDays expands a range into the explicit inclusive list of days it
// covers, oldest first. Unparseable bounds collapse to a single-day list.
func RangeDays(start, end string) []string {
	start, end = OrderRange(start, end)

	from, err := Parse(start)
	if err != nil {
		return []string{start}
	}
	to, err := Parse(end)
	if err != nil {
		return []string{start}
	}

	var days []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(Layout))
	}
	return days
}

// DaysIn returns the number of days in a month, leap-aware.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// RemainingDays returns how many whole days remain until the given expiry
// date, measured from today in KST. Negative values mean the date passed.
func RemainingDays(expiry string) (int, bool) {
	t, err := Parse(Normalize(expiry))
	if err != nil {
		return 0, false
	}
	today, _ := Parse(Today())
	return int(t.Sub(today).Hours() / 24), true
}
