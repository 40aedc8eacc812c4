package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Flag is a 0/1 marker that the upstream API returns inconsistently as a
// JSON number, a numeric string, or null. It normalizes at the decode
// boundary so display logic never has to coerce.
type Flag int

// Set reports whether the flag is 1.
func (f Flag) Set() bool { return f == 1 }

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}

	s := strings.Trim(string(data), `"`)
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*f = 0
		return nil
	}
	if int(n) == 1 {
		*f = 1
	} else {
		*f = 0
	}
	return nil
}

func (f Flag) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(int(f))), nil
}

// Days is an optional day count. The upstream API sends remaining-day
// values as numbers, numeric strings, or null; non-finite input decodes
// as not-valid and exports as an empty cell.
type Days struct {
	Valid bool
	N     int
}

func (d *Days) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*d = Days{}
		return nil
	}

	s := strings.TrimSpace(strings.Trim(string(data), `"`))
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*d = Days{}
		return nil
	}
	*d = Days{Valid: true, N: int(n)}
	return nil
}

func (d Days) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(d.N)), nil
}

// SummaryRow is one aggregate record per store for a query scope, carrying
// whether that store has submitted data in the scope.
type SummaryRow struct {
	StoreCode  string `json:"store_code"`
	StoreName  string `json:"store_name"`
	RegionName string `json:"region_name"`
	IsEntered  Flag   `json:"is_entered"`
	TotalCnt   int    `json:"total_cnt"`
}

// ItemRow is one record per material with an expiry date, scoped to a
// store and input date.
type ItemRow struct {
	StoreCode     string `json:"store_code"`
	StoreName     string `json:"store_name"`
	RegionName    string `json:"region_name"`
	Category      string `json:"category"`
	ItemName      string `json:"item_name"`
	InputDate     string `json:"input_date"`
	ExpiryDate    string `json:"expiry_date"`
	RemainingDays Days   `json:"remaining_days_by_filter"`
	Comment       string `json:"comment"`
}

// Category is one upstream material category with its item names.
type Category struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

var _ json.Unmarshaler = (*Flag)(nil)
var _ json.Unmarshaler = (*Days)(nil)
