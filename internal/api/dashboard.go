package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/daeun-oh/kihan/internal/dashboard"
	"github.com/daeun-oh/kihan/internal/dateutil"
	"github.com/daeun-oh/kihan/internal/export"
)

// DashboardHandler answers manager dashboard queries.
type DashboardHandler struct {
	Viewers *dashboard.Viewers
}

// queryFromRequest builds a range query from the filter parameters,
// defaulting both bounds to today.
func queryFromRequest(r *http.Request) dashboard.Query {
	today := dateutil.Today()
	q := dashboard.Query{
		Start:     r.URL.Query().Get("start_date"),
		End:       r.URL.Query().Get("end_date"),
		Region:    r.URL.Query().Get("region"),
		StoreCode: r.URL.Query().Get("store_code"),
		Category:  r.URL.Query().Get("category"),
	}
	if q.Start == "" {
		q.Start = today
	}
	if q.End == "" {
		q.End = today
	}
	return q
}

// sessionKey identifies one viewing session for latest-wins query
// coordination. The token ID is stable across requests from the same
// login; the remote address is a degraded fallback.
func sessionKey(r *http.Request) string {
	if claims := GetClaims(r.Context()); claims != nil && claims.ID != "" {
		return claims.ID
	}
	return r.RemoteAddr
}

// Data handles GET /api/dashboard/data.
func (h *DashboardHandler) Data(w http.ResponseWriter, r *http.Request) {
	q := queryFromRequest(r)

	res, err := h.Viewers.For(sessionKey(r)).Refresh(r.Context(), q)
	if errors.Is(err, dashboard.ErrSuperseded) {
		jsonError(w, http.StatusConflict, "superseded by a newer query")
		return
	}
	if err != nil {
		// Client went away or changed filters; nothing to report.
		slog.Debug("dashboard query cancelled", "error", err)
		jsonError(w, http.StatusRequestTimeout, "query cancelled")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"ok":      true,
		"result":  res,
		"options": dashboard.Options(res, q.Region),
	})
}

// Export handles GET /api/dashboard/export: the current filter set, as a
// spreadsheet attachment.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	q := queryFromRequest(r)

	res, err := h.Viewers.For(sessionKey(r)).Refresh(r.Context(), q)
	if err != nil {
		jsonError(w, http.StatusRequestTimeout, "query cancelled")
		return
	}

	f, err := export.Dashboard(res.Items)
	if err != nil {
		slog.Error("failed to build export", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to build export")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	if err := f.Write(w); err != nil {
		slog.Error("failed to stream export", "error", err)
	}
}
