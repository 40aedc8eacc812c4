package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/daeun-oh/kihan/internal/store"
)

// DraftsHandler manages unsaved expiry-date drafts for the logged-in store.
type DraftsHandler struct {
	DB *sql.DB
}

// List handles GET /api/drafts.
func (h *DraftsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	drafts, err := store.ListDrafts(r.Context(), h.DB, claims.StoreCode)
	if err != nil {
		slog.Error("failed to list drafts", "store", claims.StoreCode, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to load drafts")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"ok": true, "drafts": drafts})
}

type draftPutRequest struct {
	EntryKey   string `json:"entry_key"`
	ExpiryDate string `json:"expiry_date"`
}

// Put handles PUT /api/drafts. Picking a date for an item stores it as a
// draft until the store presses save.
func (h *DraftsHandler) Put(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req draftPutRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.EntryKey) == "" || strings.TrimSpace(req.ExpiryDate) == "" {
		jsonError(w, http.StatusBadRequest, "entry_key and expiry_date are required")
		return
	}

	if err := store.UpsertDraft(r.Context(), h.DB, claims.StoreCode, req.EntryKey, req.ExpiryDate); err != nil {
		slog.Error("failed to save draft", "store", claims.StoreCode, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save draft")
		return
	}

	if err := store.SetLastPicked(r.Context(), h.DB, claims.StoreCode, req.ExpiryDate); err != nil {
		slog.Warn("failed to record last picked date", "store", claims.StoreCode, "error", err)
	}

	jsonResponse(w, http.StatusOK, map[string]any{"ok": true})
}

// Delete handles DELETE /api/drafts/{key}.
func (h *DraftsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	key := r.PathValue("key")
	if key == "" {
		jsonError(w, http.StatusBadRequest, "missing entry key")
		return
	}

	if err := store.DeleteDraft(r.Context(), h.DB, claims.StoreCode, key); err != nil {
		slog.Error("failed to delete draft", "store", claims.StoreCode, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete draft")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"ok": true})
}
