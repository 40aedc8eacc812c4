package api

import (
	"log/slog"
	"net/http"

	"github.com/daeun-oh/kihan/internal/catalog"
)

// CategoriesHandler exposes the material catalogue.
type CategoriesHandler struct {
	Catalog *catalog.Service
}

// List handles GET /api/categories.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Catalog.Categories(r.Context())
	if err != nil {
		slog.Error("failed to load categories", "error", err)
		jsonError(w, http.StatusBadGateway, "failed to load categories")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"ok": true, "categories": categories})
}
