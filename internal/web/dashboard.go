package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/daeun-oh/kihan/internal/dashboard"
	"github.com/daeun-oh/kihan/internal/dateutil"
	"github.com/daeun-oh/kihan/internal/export"
)

// dashboardQuery builds the range query from the filter form, defaulting
// both bounds to today.
func dashboardQuery(r *http.Request) dashboard.Query {
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

// viewerKey identifies one manager session for latest-wins query
// coordination.
func viewerKey(r *http.Request) string {
	if claims := GetWebClaims(r.Context()); claims != nil && claims.ID != "" {
		return claims.ID
	}
	return r.RemoteAddr
}

// DashboardPage handles GET /dashboard.
func (s *Server) DashboardPage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	q := dashboardQuery(r)

	res, err := s.Viewers.For(viewerKey(r)).Refresh(r.Context(), q)
	if errors.Is(err, dashboard.ErrSuperseded) {
		// A newer filter change is already rendering.
		return
	}
	if err != nil {
		slog.Debug("dashboard query cancelled", "error", err)
		return
	}

	exportQuery := url.Values{}
	exportQuery.Set("start_date", q.Start)
	exportQuery.Set("end_date", q.End)
	if q.Region != "" {
		exportQuery.Set("region", q.Region)
	}
	if q.StoreCode != "" {
		exportQuery.Set("store_code", q.StoreCode)
	}
	if q.Category != "" {
		exportQuery.Set("category", q.Category)
	}

	s.Templates.Render(w, "dashboard.html", &struct {
		PageData
		Query     dashboard.Query
		Result    *dashboard.Result
		Options   dashboard.FilterOptions
		ExportURL string
	}{
		PageData:  PageData{Title: "유통기한 대시보드", User: claims},
		Query:     q,
		Result:    res,
		Options:   dashboard.Options(res, q.Region),
		ExportURL: "/dashboard/export?" + exportQuery.Encode(),
	})
}

// DashboardExport handles GET /dashboard/export: the current filter set
// as a spreadsheet attachment.
func (s *Server) DashboardExport(w http.ResponseWriter, r *http.Request) {
	q := dashboardQuery(r)

	res, err := s.Viewers.For(viewerKey(r)).Refresh(r.Context(), q)
	if err != nil {
		http.Error(w, "query cancelled", http.StatusRequestTimeout)
		return
	}

	f, err := export.Dashboard(res.Items)
	if err != nil {
		slog.Error("failed to build export", "error", err)
		http.Error(w, "failed to build export", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	if err := f.Write(w); err != nil {
		slog.Error("failed to stream export", "error", err)
	}
}
