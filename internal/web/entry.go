package web

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/daeun-oh/kihan/internal/catalog"
	"github.com/daeun-oh/kihan/internal/dateutil"
	"github.com/daeun-oh/kihan/internal/model"
	"github.com/daeun-oh/kihan/internal/store"
	"github.com/daeun-oh/kihan/internal/wheel"
)

// pickView identifies the item an expiry date is being picked for.
type pickView struct {
	Key      string
	Category string
	Item     string
}

// wheelView is the rendered state of the date picker plus the links that
// scroll each column.
type wheelView struct {
	Date  string
	Year  int
	Month int
	Day   int

	YearUp    string
	YearDown  string
	MonthUp   string
	MonthDown string
	DayUp     string
	DayDown   string

	// Quick actions.
	Today    string
	PlusDay  string
	MinusDay string

	// Base query for the direct-entry form.
	Pick     string
	Category string
	Search   string
}

// EntryPage handles GET /. It renders the catalogue with draft state and,
// when an item is being picked, the date scroller.
func (s *Server) EntryPage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	ctx := r.Context()
	q := r.URL.Query()

	// The session row expires independently of the token.
	sess, err := store.GetStoreSession(ctx, s.DB, claims.StoreCode)
	if err != nil {
		slog.Error("failed to check store session", "store", claims.StoreCode, "error", err)
	}
	if sess == nil {
		clearAuthCookie(w)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	selected := q.Get("category")
	search := q.Get("q")

	categories, err := s.Catalog.Categories(ctx)
	if err != nil {
		slog.Error("failed to load categories", "error", err)
	}

	drafts, err := store.ListDrafts(ctx, s.DB, claims.StoreCode)
	if err != nil {
		slog.Error("failed to load drafts", "store", claims.StoreCode, "error", err)
	}

	var pick *pickView
	var wv *wheelView
	if key := q.Get("pick"); key != "" {
		if category, item, ok := model.SplitEntryKey(key); ok {
			pick = &pickView{Key: key, Category: category, Item: item}
			wv = s.buildWheel(r, key, drafts[key])
		}
	}

	s.Templates.Render(w, "entry.html", &struct {
		PageData
		Categories []model.Category
		AllNames   []string
		Selected   string
		Search     string
		Drafts     map[string]string
		Pick       *pickView
		Wheel      *wheelView
		Saved      string
	}{
		PageData:   PageData{Title: "유통기한 입력", User: claims, Error: q.Get("error")},
		Categories: catalog.Filter(categories, selected, search),
		AllNames:   categoryNames(categories),
		Selected:   selected,
		Search:     search,
		Drafts:     drafts,
		Pick:       pick,
		Wheel:      wv,
		Saved:      q.Get("saved"),
	})
}

// buildWheel resolves the scroller position for the current request. The
// base date comes from the request, falling back to the item's draft, the
// store's last picked date, and finally today.
func (s *Server) buildWheel(r *http.Request, key, draft string) *wheelView {
	claims := GetWebClaims(r.Context())
	q := r.URL.Query()

	date := q.Get("date")
	if date == "" {
		date = draft
	}
	if date == "" {
		last, err := store.GetLastPicked(r.Context(), s.DB, claims.StoreCode)
		if err != nil {
			slog.Error("failed to load last picked date", "store", claims.StoreCode, "error", err)
		}
		date = last
	}

	wh := wheel.New(date)
	if col, delta := scrollAction(q); delta != 0 {
		wh.Scroll(col, delta)
	}
	applyDirectEntry(wh, q)

	year, month, day := wh.YMD()
	current := wh.External()

	base := func(date string) url.Values {
		v := url.Values{}
		v.Set("pick", key)
		v.Set("date", date)
		if c := q.Get("category"); c != "" {
			v.Set("category", c)
		}
		if term := q.Get("q"); term != "" {
			v.Set("q", term)
		}
		return v
	}
	link := func(col, delta string) string {
		v := base(current)
		v.Set("col", col)
		v.Set("delta", delta)
		return "/?" + v.Encode()
	}
	jump := func(date string) string {
		return "/?" + base(date).Encode()
	}

	return &wheelView{
		Date:      current,
		Year:      year,
		Month:     month,
		Day:       day,
		YearUp:    link("year", "1"),
		YearDown:  link("year", "-1"),
		MonthUp:   link("month", "1"),
		MonthDown: link("month", "-1"),
		DayUp:     link("day", "1"),
		DayDown:   link("day", "-1"),
		Today:     jump(dateutil.Today()),
		PlusDay:   jump(dateutil.AddDays(current, 1)),
		MinusDay:  jump(dateutil.AddDays(current, -1)),
		Pick:      key,
		Category:  q.Get("category"),
		Search:    q.Get("q"),
	}
}

// applyDirectEntry applies typed-in column values from the picker form,
// each clamped to its valid range.
func applyDirectEntry(wh *wheel.Wheel, q url.Values) {
	for _, e := range []struct {
		param string
		col   wheel.Column
	}{
		{"y", wheel.Year},
		{"m", wheel.Month},
		{"d", wheel.Day},
	} {
		if n, err := strconv.Atoi(q.Get(e.param)); err == nil {
			wh.Enter(e.col, n)
		}
	}
}

func scrollAction(q url.Values) (wheel.Column, int) {
	delta, err := strconv.Atoi(q.Get("delta"))
	if err != nil {
		return 0, 0
	}
	switch q.Get("col") {
	case "year":
		return wheel.Year, delta
	case "month":
		return wheel.Month, delta
	case "day":
		return wheel.Day, delta
	}
	return 0, 0
}

// PickSubmit handles POST /entry/pick: confirm the scroller date as a
// draft for one item.
func (s *Server) PickSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	key := r.FormValue("entry_key")
	date := dateutil.Normalize(r.FormValue("expiry_date"))
	if key == "" || date == "" {
		http.Redirect(w, r, entryURL(r, nil), http.StatusSeeOther)
		return
	}

	if err := store.UpsertDraft(r.Context(), s.DB, claims.StoreCode, key, date); err != nil {
		slog.Error("failed to save draft", "store", claims.StoreCode, "error", err)
	} else if err := store.SetLastPicked(r.Context(), s.DB, claims.StoreCode, date); err != nil {
		slog.Error("failed to record last picked date", "store", claims.StoreCode, "error", err)
	}

	http.Redirect(w, r, entryURL(r, nil), http.StatusSeeOther)
}

// DeleteSubmit handles POST /entry/delete: discard one draft.
func (s *Server) DeleteSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	if key := r.FormValue("entry_key"); key != "" {
		if err := store.DeleteDraft(r.Context(), s.DB, claims.StoreCode, key); err != nil {
			slog.Error("failed to delete draft", "store", claims.StoreCode, "error", err)
		}
	}

	http.Redirect(w, r, entryURL(r, nil), http.StatusSeeOther)
}

// SaveSubmit handles POST /entry/save: flush all drafts upstream. Drafts
// survive a failed save so the store can retry.
func (s *Server) SaveSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	ctx := r.Context()

	drafts, err := store.ListDrafts(ctx, s.DB, claims.StoreCode)
	if err != nil {
		slog.Error("failed to load drafts for save", "store", claims.StoreCode, "error", err)
		http.Redirect(w, r, entryURL(r, map[string]string{"error": "저장에 실패했습니다."}), http.StatusSeeOther)
		return
	}

	entries := model.EntriesFromDrafts(drafts)
	if len(entries) == 0 {
		http.Redirect(w, r, entryURL(r, map[string]string{"error": "입력된 유통기한이 없습니다."}), http.StatusSeeOther)
		return
	}

	result, err := s.Upstream.BulkSave(ctx, claims.StoreCode, dateutil.Today(), entries)
	if err != nil {
		slog.Error("bulk save failed", "store", claims.StoreCode, "error", err)
		http.Redirect(w, r, entryURL(r, map[string]string{"error": "저장에 실패했습니다. 잠시 후 다시 시도해주세요."}), http.StatusSeeOther)
		return
	}
	if !result.OK {
		http.Redirect(w, r, entryURL(r, map[string]string{"error": result.Error}), http.StatusSeeOther)
		return
	}

	for key := range drafts {
		if err := store.DeleteDraft(ctx, s.DB, claims.StoreCode, key); err != nil {
			slog.Error("failed to clear draft after save", "store", claims.StoreCode, "key", key, "error", err)
		}
	}

	slog.Info("entries saved", "store", claims.StoreCode, "count", result.Count)
	http.Redirect(w, r, entryURL(r, map[string]string{"saved": strconv.Itoa(result.Count)}), http.StatusSeeOther)
}

// entryURL rebuilds the entry page URL, preserving the catalogue filters
// from the submitted form and adding extra parameters.
func entryURL(r *http.Request, extra map[string]string) string {
	v := url.Values{}
	if c := r.FormValue("category"); c != "" {
		v.Set("category", c)
	}
	if s := r.FormValue("q"); s != "" {
		v.Set("q", s)
	}
	for k, val := range extra {
		v.Set(k, val)
	}
	if len(v) == 0 {
		return "/"
	}
	return "/?" + v.Encode()
}

func categoryNames(categories []model.Category) []string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Category)
	}
	return names
}

