package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/daeun-oh/kihan/internal/dateutil"
	"github.com/daeun-oh/kihan/internal/model"
	"github.com/daeun-oh/kihan/internal/store"
	"github.com/daeun-oh/kihan/internal/upstream"
)

// SaveHandler flushes a store's drafts upstream in one bulk request.
type SaveHandler struct {
	DB       *sql.DB
	Upstream *upstream.Client
}

// Save handles POST /api/save. Drafts are deleted only after the upstream
// save succeeds; a failed save leaves them intact for retry.
func (h *SaveHandler) Save(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	ctx := r.Context()

	drafts, err := store.ListDrafts(ctx, h.DB, claims.StoreCode)
	if err != nil {
		slog.Error("failed to load drafts for save", "store", claims.StoreCode, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to load drafts")
		return
	}

	entries := model.EntriesFromDrafts(drafts)
	if len(entries) == 0 {
		jsonError(w, http.StatusBadRequest, "입력된 유통기한이 없습니다.")
		return
	}

	result, err := h.Upstream.BulkSave(ctx, claims.StoreCode, dateutil.Today(), entries)
	if err != nil {
		slog.Error("bulk save failed", "store", claims.StoreCode, "error", err)
		jsonError(w, http.StatusBadGateway, "저장에 실패했습니다. 잠시 후 다시 시도해주세요.")
		return
	}
	if !result.OK {
		jsonError(w, http.StatusBadGateway, result.Error)
		return
	}

	for key := range drafts {
		if err := store.DeleteDraft(ctx, h.DB, claims.StoreCode, key); err != nil {
			slog.Warn("failed to clear draft after save", "store", claims.StoreCode, "key", key, "error", err)
		}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"ok":    true,
		"count": result.Count,
	})
}
