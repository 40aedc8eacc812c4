package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/daeun-oh/kihan/internal/auth"
	"github.com/daeun-oh/kihan/internal/model"
	"github.com/daeun-oh/kihan/internal/store"
)

// AuthHandler handles session endpoints.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
}

type storeLoginRequest struct {
	StoreCode string `json:"store_code"`
	StoreName string `json:"store_name"`
}

// StoreLogin handles POST /api/auth/store-login. A store logs in with
// its code and name only; validation is the same the entry form applies.
func (h *AuthHandler) StoreLogin(w http.ResponseWriter, r *http.Request) {
	var req storeLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code := strings.TrimSpace(req.StoreCode)
	name := strings.TrimSpace(req.StoreName)

	if !model.ValidStoreCode(code) {
		jsonError(w, http.StatusBadRequest, "매장코드는 1410으로 시작하는 7자리 숫자만 가능합니다. (예: 1410760)")
		return
	}
	if name == "" {
		jsonError(w, http.StatusBadRequest, "매장명을 입력해주세요.")
		return
	}

	if err := store.SaveStoreSession(r.Context(), h.DB, code, name); err != nil {
		slog.Error("failed to save store session", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	token, err := auth.GenerateStoreToken(h.JWTSecret, code, name)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	setSessionCookie(w, token)
	jsonResponse(w, http.StatusOK, map[string]any{
		"ok":         true,
		"token":      token,
		"store_code": code,
		"store_name": name,
	})
}

type managerLoginRequest struct {
	Passphrase string `json:"passphrase"`
}

// ManagerLogin handles POST /api/auth/manager-login.
func (h *AuthHandler) ManagerLogin(w http.ResponseWriter, r *http.Request) {
	var req managerLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	hash, err := store.GetManagerHash(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to read manager hash", "error", err)
		jsonError(w, http.StatusInternalServerError, "login unavailable")
		return
	}
	if hash == "" {
		jsonError(w, http.StatusForbidden, "manager access is not configured")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Passphrase)); err != nil {
		jsonError(w, http.StatusUnauthorized, "wrong passphrase")
		return
	}

	token, err := auth.GenerateManagerToken(h.JWTSecret)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	setSessionCookie(w, token)
	jsonResponse(w, http.StatusOK, map[string]any{"ok": true, "token": token})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	jsonResponse(w, http.StatusOK, map[string]any{"ok": true})
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(auth.TokenExpiry.Seconds()),
	})
}
