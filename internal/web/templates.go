package web

import (
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/daeun-oh/kihan/internal/auth"
	"github.com/daeun-oh/kihan/internal/catalog"
	"github.com/daeun-oh/kihan/internal/dashboard"
	"github.com/daeun-oh/kihan/internal/dateutil"
	"github.com/daeun-oh/kihan/internal/model"
	"github.com/daeun-oh/kihan/internal/upstream"
	webembed "github.com/daeun-oh/kihan/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"icon": catalog.Icon,
		"remainingLabel": func(expiry string) string {
			n, ok := dateutil.RemainingDays(expiry)
			if !ok {
				return ""
			}
			return dayLabel(n)
		},
		"remainingClass": func(expiry string) string {
			n, ok := dateutil.RemainingDays(expiry)
			if !ok {
				return ""
			}
			return dayClass(n)
		},
		// Dashboard rows carry a server-computed remaining-day count;
		// fall back to deriving it from the expiry date.
		"daysLabel": func(d model.Days, expiry string) string {
			if d.Valid {
				return dayLabel(d.N)
			}
			if n, ok := dateutil.RemainingDays(expiry); ok {
				return dayLabel(n)
			}
			return ""
		},
		"daysClass": func(d model.Days, expiry string) string {
			if d.Valid {
				return dayClass(d.N)
			}
			if n, ok := dateutil.RemainingDays(expiry); ok {
				return dayClass(n)
			}
			return ""
		},
		"enteredLabel": func(entered bool) string {
			if entered {
				return "입력완료"
			}
			return "미입력"
		},
	}
}

func dayLabel(n int) string {
	switch {
	case n < 0:
		return fmt.Sprintf("D+%d", -n)
	case n == 0:
		return "D-DAY"
	default:
		return fmt.Sprintf("D-%d", n)
	}
}

func dayClass(n int) string {
	switch {
	case n < 0:
		return "expired"
	case n <= 7:
		return "urgent"
	default:
		return "ok"
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	// Read layout.
	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"login.html",
		"manager_login.html",
		"entry.html",
		"dashboard.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *auth.Claims
	Error   string
	Success string
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB        *sql.DB
	Templates *Templates
	JWTSecret string
	Upstream  *upstream.Client
	Catalog   *catalog.Service
	Viewers   *dashboard.Viewers
}
