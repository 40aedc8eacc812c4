package web

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/daeun-oh/kihan/internal/auth"
	"github.com/daeun-oh/kihan/internal/model"
	"github.com/daeun-oh/kihan/internal/store"
)

// LoginPage handles GET /login. The form pre-fills from query parameters
// (the dashboard's 입력하기 handoff) or, failing that, from the most recent
// store session so a returning store only has to confirm.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	var identity *model.StoreIdentity
	if code := r.URL.Query().Get("store_code"); code != "" {
		identity = &model.StoreIdentity{
			StoreCode: code,
			StoreName: r.URL.Query().Get("store_name"),
		}
	} else {
		var err error
		identity, err = store.LatestStoreSession(r.Context(), s.DB)
		if err != nil {
			slog.Error("failed to load last store session", "error", err)
		}
	}

	s.Templates.Render(w, "login.html", &struct {
		PageData
		Identity *model.StoreIdentity
	}{
		PageData: PageData{Title: "매장 로그인"},
		Identity: identity,
	})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.FormValue("store_code"))
	name := strings.TrimSpace(r.FormValue("store_name"))

	fail := func(msg string) {
		s.Templates.Render(w, "login.html", &struct {
			PageData
			Identity *model.StoreIdentity
		}{
			PageData: PageData{Title: "매장 로그인", Error: msg},
			Identity: &model.StoreIdentity{StoreCode: code, StoreName: name},
		})
	}

	if !model.ValidStoreCode(code) {
		fail("매장코드는 1410으로 시작하는 7자리 숫자만 가능합니다. (예: 1410760)")
		return
	}
	if name == "" {
		fail("매장명을 입력해주세요.")
		return
	}

	if err := store.SaveStoreSession(r.Context(), s.DB, code, name); err != nil {
		slog.Error("failed to save store session", "error", err)
		fail("로그인에 실패했습니다. 잠시 후 다시 시도해주세요.")
		return
	}

	token, err := auth.GenerateStoreToken(s.JWTSecret, code, name)
	if err != nil {
		slog.Error("failed to issue store token", "error", err)
		fail("로그인에 실패했습니다. 잠시 후 다시 시도해주세요.")
		return
	}

	setAuthCookie(w, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ManagerLoginPage handles GET /dashboard/login.
func (s *Server) ManagerLoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "manager_login.html", &PageData{Title: "대시보드 로그인"})
}

// ManagerLoginSubmit handles POST /dashboard/login.
func (s *Server) ManagerLoginSubmit(w http.ResponseWriter, r *http.Request) {
	passphrase := r.FormValue("passphrase")

	fail := func(msg string) {
		s.Templates.Render(w, "manager_login.html", &PageData{Title: "대시보드 로그인", Error: msg})
	}

	hash, err := store.GetManagerHash(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to read manager hash", "error", err)
		fail("로그인에 실패했습니다. 잠시 후 다시 시도해주세요.")
		return
	}
	if hash == "" {
		fail("관리자 접속이 설정되지 않았습니다.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(passphrase)); err != nil {
		fail("비밀번호가 올바르지 않습니다.")
		return
	}

	token, err := auth.GenerateManagerToken(s.JWTSecret)
	if err != nil {
		slog.Error("failed to issue manager token", "error", err)
		fail("로그인에 실패했습니다. 잠시 후 다시 시도해주세요.")
		return
	}

	setAuthCookie(w, token)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout handles POST /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(auth.TokenExpiry.Seconds()),
	})
}
