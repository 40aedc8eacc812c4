// Package catalog serves the material category catalogue: upstream when
// reachable, the last cached copy otherwise.
package catalog

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"strings"

	"github.com/daeun-oh/kihan/internal/model"
	"github.com/daeun-oh/kihan/internal/store"
)

// displayOrder is the fixed business ordering of categories on the entry
// view. Unknown categories sort after the known ones.
var displayOrder = []string{
	"워크인",
	"냉동",
	"냉장",
	"소스류/빽",
	"파우더",
	"카운터",
	"시럽/상품음료",
	"화학세제",
	"기타",
}

// Icons maps categories to their entry-view icons.
var Icons = map[string]string{
	"워크인":     "🍗",
	"냉동":      "❄️",
	"냉장":      "🧊",
	"소스류/빽":   "🥫",
	"파우더":     "📦",
	"카운터":     "🖥",
	"시럽/상품음료": "🥤",
	"화학세제":    "🧪",
	"기타":      "🔍",
}

// Icon returns the icon for a category, with the catch-all fallback.
func Icon(category string) string {
	if icon, ok := Icons[category]; ok {
		return icon
	}
	return Icons["기타"]
}

// Fetcher is the slice of the upstream client the service needs.
type Fetcher interface {
	Categories(ctx context.Context) ([]model.Category, error)
}

// Service fetches the catalogue and keeps the cache fresh.
type Service struct {
	DB       *sql.DB
	Upstream Fetcher
}

// Categories returns the catalogue in display order. A successful
// upstream fetch refreshes the cache; a failed one falls back to the
// cached copy, so the entry view renders immediately even when the
// upstream API is down.
func (s *Service) Categories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.Upstream.Categories(ctx)
	if err != nil {
		slog.Warn("category fetch failed, using cache", "error", err)
		cached, cacheErr := store.GetCategoryCache(ctx, s.DB)
		if cacheErr != nil {
			return nil, cacheErr
		}
		if cached == nil {
			return nil, err
		}
		Sort(cached)
		return cached, nil
	}

	if err := store.SaveCategoryCache(ctx, s.DB, categories); err != nil {
		slog.Warn("failed to refresh category cache", "error", err)
	}
	Sort(categories)
	return categories, nil
}

// Sort orders categories by the fixed display order.
func Sort(categories []model.Category) {
	rank := func(c string) int {
		for i, name := range displayOrder {
			if name == c {
				return i
			}
		}
		return len(displayOrder)
	}
	sort.SliceStable(categories, func(i, j int) bool {
		return rank(categories[i].Category) < rank(categories[j].Category)
	})
}

// Filter narrows the catalogue to one category and/or an item-name
// search, dropping categories left without items. selected "" or "ALL"
// means all categories.
func Filter(categories []model.Category, selected, search string) []model.Category {
	search = strings.ToLower(strings.TrimSpace(search))

	var filtered []model.Category
	for _, cat := range categories {
		if selected != "" && selected != "ALL" && cat.Category != selected {
			continue
		}

		items := cat.Items
		if search != "" {
			items = nil
			for _, item := range cat.Items {
				if strings.Contains(strings.ToLower(item), search) {
					items = append(items, item)
				}
			}
		}
		if len(items) == 0 {
			continue
		}

		filtered = append(filtered, model.Category{Category: cat.Category, Items: items})
	}
	return filtered
}
