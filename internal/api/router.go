package api

import (
	"database/sql"
	"net/http"

	"github.com/daeun-oh/kihan/internal/catalog"
	"github.com/daeun-oh/kihan/internal/dashboard"
	"github.com/daeun-oh/kihan/internal/upstream"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, client *upstream.Client, viewers *dashboard.Viewers, cat *catalog.Service) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	draftsHandler := &DraftsHandler{DB: db}
	saveHandler := &SaveHandler{DB: db, Upstream: client}
	categoriesHandler := &CategoriesHandler{Catalog: cat}
	dashboardHandler := &DashboardHandler{Viewers: viewers}

	authMW := AuthMiddleware(jwtSecret)

	// Public: login.
	mux.HandleFunc("POST /api/auth/store-login", authHandler.StoreLogin)
	mux.HandleFunc("POST /api/auth/manager-login", authHandler.ManagerLogin)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)

	// Store session: entry workflow.
	mux.Handle("GET /api/categories", authMW(RequireStore(http.HandlerFunc(categoriesHandler.List))))
	mux.Handle("GET /api/drafts", authMW(RequireStore(http.HandlerFunc(draftsHandler.List))))
	mux.Handle("PUT /api/drafts", authMW(RequireStore(http.HandlerFunc(draftsHandler.Put))))
	mux.Handle("DELETE /api/drafts/{key}", authMW(RequireStore(http.HandlerFunc(draftsHandler.Delete))))
	mux.Handle("POST /api/save", authMW(RequireStore(http.HandlerFunc(saveHandler.Save))))

	// Manager session: dashboard.
	mux.Handle("GET /api/dashboard/data", authMW(RequireManager(http.HandlerFunc(dashboardHandler.Data))))
	mux.Handle("GET /api/dashboard/export", authMW(RequireManager(http.HandlerFunc(dashboardHandler.Export))))

	return mux
}
