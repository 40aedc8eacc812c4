// Package wheel models the three-column year/month/day scroller behind
// the entry view's expiry-date picker.
package wheel

import (
	"fmt"

	"github.com/daeun-oh/kihan/internal/dateutil"
)

// Column selects one of the three scroller columns.
type Column int

const (
	Year Column = iota
	Month
	Day
)

// Year bounds for the scroller. Expiry dates far outside this window are
// data-entry mistakes.
const (
	minYear = 2000
	maxYear = 2100
)

// Wheel keeps (year, month, day) state synchronized with an external
// YYYY-MM-DD value. A value only crosses the boundary when it differs
// from the last value already communicated in either direction, which
// breaks feedback loops between the two representations.
type Wheel struct {
	year  int
	month int
	day   int

	lastExchanged string
}

// New creates a wheel positioned at the external value, or at today (KST)
// when the value is empty or unparseable.
func New(external string) *Wheel {
	w := &Wheel{}
	w.derive(external)
	w.lastExchanged = w.format()
	return w
}

func (w *Wheel) derive(external string) {
	v := dateutil.Normalize(external)
	t, err := dateutil.Parse(v)
	if err != nil {
		t, _ = dateutil.Parse(dateutil.Today())
	}
	w.year, w.month, w.day = t.Year(), int(t.Month()), t.Day()
	w.clamp()
}

// SetExternal pushes a new external value into the wheel. An echo of the
// value last sent or received is a no-op.
func (w *Wheel) SetExternal(external string) {
	v := dateutil.Normalize(external)
	if v == w.lastExchanged {
		return
	}
	w.derive(v)
	w.lastExchanged = w.format()
}

// External returns the current value as YYYY-MM-DD and records it as
// communicated outward.
func (w *Wheel) External() string {
	w.lastExchanged = w.format()
	return w.lastExchanged
}

// Changed reports whether the wheel has moved since the last exchange,
// without communicating the value.
func (w *Wheel) Changed() bool {
	return w.format() != w.lastExchanged
}

// YMD exposes the column values for rendering.
func (w *Wheel) YMD() (year, month, day int) {
	return w.year, w.month, w.day
}

// Scroll moves one column by delta ticks. Month and day wrap the way a
// wheel does; year stops at its bounds. Day is re-clamped to the length
// of the selected month after every move.
func (w *Wheel) Scroll(col Column, delta int) {
	switch col {
	case Year:
		w.year += delta
	case Month:
		w.month = wrap(w.month+delta, 1, 12)
	case Day:
		w.day = wrap(w.day+delta, 1, dateutil.DaysIn(w.year, w.month))
	}
	w.clamp()
}

// Enter sets one column by direct numeric entry, clamped to its valid
// range.
func (w *Wheel) Enter(col Column, n int) {
	switch col {
	case Year:
		w.year = n
	case Month:
		w.month = clampInt(n, 1, 12)
	case Day:
		w.day = clampInt(n, 1, dateutil.DaysIn(w.year, w.month))
	}
	w.clamp()
}

func (w *Wheel) clamp() {
	w.year = clampInt(w.year, minYear, maxYear)
	w.month = clampInt(w.month, 1, 12)
	w.day = clampInt(w.day, 1, dateutil.DaysIn(w.year, w.month))
}

func (w *Wheel) format() string {
	return fmt.Sprintf("%04d-%02d-%02d", w.year, w.month, w.day)
}

func wrap(v, lo, hi int) int {
	span := hi - lo + 1
	v = (v - lo) % span
	if v < 0 {
		v += span
	}
	return v + lo
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
