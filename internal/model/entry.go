package model

import (
	"regexp"
	"strings"
)

// storeCodePattern matches valid store codes: 1410 followed by three digits.
var storeCodePattern = regexp.MustCompile(`^1410\d{3}$`)

// ValidStoreCode reports whether a store code has the expected shape.
func ValidStoreCode(code string) bool {
	return storeCodePattern.MatchString(strings.TrimSpace(code))
}

// StoreIdentity identifies the store a user is entering data for. Display
// and default-filter use only.
type StoreIdentity struct {
	StoreCode string `json:"store_code"`
	StoreName string `json:"store_name"`
}

// ExpiryEntry is one confirmed expiry-date pick, as submitted upstream.
type ExpiryEntry struct {
	Category   string `json:"category"`
	ItemName   string `json:"item_name"`
	ExpiryDate string `json:"expiry_date"`
}

// EntryKey builds the draft key for a category/item pair.
func EntryKey(category, itemName string) string {
	return category + "__" + itemName
}

// SplitEntryKey breaks a draft key back into its category and item name.
// The second return is false when the key is malformed.
func SplitEntryKey(key string) (category, itemName string, ok bool) {
	category, itemName, ok = strings.Cut(key, "__")
	if !ok || category == "" || itemName == "" {
		return "", "", false
	}
	return category, itemName, true
}

// EntriesFromDrafts converts a draft key→date mapping into the bulk-save
// entry list, dropping empty dates and malformed keys.
func EntriesFromDrafts(drafts map[string]string) []ExpiryEntry {
	var entries []ExpiryEntry
	for key, date := range drafts {
		if date == "" {
			continue
		}
		category, item, ok := SplitEntryKey(key)
		if !ok {
			continue
		}
		entries = append(entries, ExpiryEntry{
			Category:   category,
			ItemName:   item,
			ExpiryDate: date,
		})
	}
	return entries
}
