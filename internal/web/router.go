package web

import (
	"database/sql"
	"net/http"

	"github.com/daeun-oh/kihan/internal/auth"
	"github.com/daeun-oh/kihan/internal/catalog"
	"github.com/daeun-oh/kihan/internal/dashboard"
	"github.com/daeun-oh/kihan/internal/upstream"
	webembed "github.com/daeun-oh/kihan/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(db *sql.DB, jwtSecret string, client *upstream.Client, viewers *dashboard.Viewers, cat *catalog.Service) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        db,
		Templates: templates,
		JWTSecret: jwtSecret,
		Upstream:  client,
		Catalog:   cat,
		Viewers:   viewers,
	}

	mux := http.NewServeMux()
	storeAuth := CookieAuthMiddleware(jwtSecret, auth.RoleStore, "/login")
	managerAuth := CookieAuthMiddleware(jwtSecret, auth.RoleManager, "/dashboard/login")

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("GET /dashboard/login", s.ManagerLoginPage)
	mux.HandleFunc("POST /dashboard/login", s.ManagerLoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Store entry view.
	mux.Handle("GET /{$}", storeAuth(http.HandlerFunc(s.EntryPage)))
	mux.Handle("POST /entry/pick", storeAuth(http.HandlerFunc(s.PickSubmit)))
	mux.Handle("POST /entry/delete", storeAuth(http.HandlerFunc(s.DeleteSubmit)))
	mux.Handle("POST /entry/save", storeAuth(http.HandlerFunc(s.SaveSubmit)))

	// Manager dashboard.
	mux.Handle("GET /dashboard", managerAuth(http.HandlerFunc(s.DashboardPage)))
	mux.Handle("GET /dashboard/export", managerAuth(http.HandlerFunc(s.DashboardExport)))

	return mux, nil
}
