package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/good-deeds/board/internal/apperr"
	"github.com/good-deeds/board/internal/auth"
	"github.com/good-deeds/board/internal/models"
	"github.com/good-deeds/board/internal/service"
	"github.com/good-deeds/board/internal/web"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Service  *service.Service
	Gateway  *auth.Gateway
	Renderer *web.Renderer
}

type credentials struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required"`
	City     string `json:"city" validate:"max=100"`
}

// ==========================
// Pages
// ==========================

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r.Context()); ok {
		web.Redirect(w, r, "/map", "")
		return
	}
	h.Renderer.Render(w, http.StatusOK, "login", web.Page{Title: "Вход", Flash: web.PopFlash(w, r)})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r.Context()); ok {
		web.Redirect(w, r, "/map", "")
		return
	}
	u, err := h.Service.Authenticate(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		web.Redirect(w, r, "/login", h.pageMessage(r, err))
		return
	}
	if !h.startSession(w, r, u) {
		web.Redirect(w, r, "/login", ErrMessageInternal)
		return
	}
	web.Redirect(w, r, "/map", "")
}

func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r.Context()); ok {
		web.Redirect(w, r, "/map", "")
		return
	}
	h.Renderer.Render(w, http.StatusOK, "register", web.Page{Title: "Регистрация", Flash: web.PopFlash(w, r)})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r.Context()); ok {
		web.Redirect(w, r, "/map", "")
		return
	}
	_, err := h.Service.Register(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"), r.PostFormValue("city"))
	if err != nil {
		web.Redirect(w, r, "/register", h.pageMessage(r, err))
		return
	}
	web.Redirect(w, r, "/login", "Регистрация прошла успешно, войдите")
}

// Logout revokes the current token and clears the cookie. Anonymous callers
// are simply sent to the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if me, ok := auth.CurrentUser(r.Context()); ok {
		if err := h.Gateway.Revoke(r.Context(), me); err != nil {
			slog.Error("revoke session", "user_id", me.UserID, "error", err)
		}
	}
	h.Gateway.ClearCookie(w)
	web.Redirect(w, r, "/login", "")
}

// ==========================
// JSON API
// ==========================

func (h *AuthHandler) APILogin(w http.ResponseWriter, r *http.Request) {
	var input credentials
	if !decodeAndValidate(w, r, &input) {
		return
	}
	u, err := h.Service.Authenticate(r.Context(), input.Username, input.Password)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	token, claims, err := h.Gateway.Issuer().Issue(u)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	JSONSuccess(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": claims.ExpiresAt.Time,
		"user":       u,
	})
}

func (h *AuthHandler) APIRegister(w http.ResponseWriter, r *http.Request) {
	var input credentials
	if !decodeAndValidate(w, r, &input) {
		return
	}
	u, err := h.Service.Register(r.Context(), input.Username, input.Password, input.City)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	JSONSuccess(w, http.StatusCreated, map[string]any{"user": u})
}

func (h *AuthHandler) APILogout(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentUser(r.Context())
	if err := h.Gateway.Revoke(r.Context(), me); err != nil {
		ServiceError(w, r, err)
		return
	}
	JSONSuccess(w, http.StatusOK, nil)
}

// Me returns the signed-in user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentUser(r.Context())
	u, err := h.Service.User(r.Context(), me.UserID)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	JSONSuccess(w, http.StatusOK, map[string]any{"user": u})
}

// ==========================
// Unauthorized responses
// ==========================

// PageUnauthorized sends anonymous page requests to the login form.
func PageUnauthorized(w http.ResponseWriter, r *http.Request) {
	web.Redirect(w, r, "/login", "Войдите, чтобы продолжить")
}

// APIUnauthorized answers anonymous JSON requests with 401.
func APIUnauthorized(w http.ResponseWriter, r *http.Request) {
	JSONError(w, "authentication required", http.StatusUnauthorized)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, u *models.User) bool {
	token, claims, err := h.Gateway.Issuer().Issue(u)
	if err != nil {
		logInternal(r, err)
		return false
	}
	h.Gateway.SetCookie(w, token, claims)
	return true
}

// pageMessage is the flash text for a failed form submission.
func (h *AuthHandler) pageMessage(r *http.Request, err error) string {
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, service.ErrUserExists):
		return "Пользователь уже существует"
	case errors.Is(err, service.ErrInvalidCredentials):
		return "Неверное имя пользователя или пароль"
	}
	logInternal(r, err)
	return ErrMessageInternal
}
