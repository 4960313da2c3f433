package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/mailjohn/internal/auth/refresh"
	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
	"github.com/dropDatabas3/mailjohn/internal/security/password"
	"github.com/dropDatabas3/mailjohn/internal/security/token"
	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

// CookieConfig es lo necesario para setear la cookie de refresh.
type CookieConfig struct {
	Domain   string
	SameSite string
	Secure   bool
}

// AuthHandler implementa signup/login/refresh/logout/me.
type AuthHandler struct {
	Repo    core.Repository
	Rotator *refresh.Rotator
	Issuer  *token.Issuer
	Cookies CookieConfig
}

type accountOut struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type tokenOut struct {
	User        accountOut `json:"user"`
	AccessToken string     `json:"access_token"`
	ExpiresAt   int64      `json:"expires_at"`
}

func toAccountOut(a *core.Account) accountOut {
	return accountOut{ID: a.ID, Email: a.Email, Name: a.Name}
}

// ─────────────── POST /api/auth/signup ───────────────

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if !ReadJSON(w, r, &in) {
		return
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		WriteError(w, http.StatusBadRequest, "invalid_request", "email inválido", 1101)
		return
	}
	if len(in.Password) < 8 {
		WriteError(w, http.StatusBadRequest, "invalid_request", "password demasiado corta (mínimo 8)", 1103)
		return
	}

	hash, err := password.Hash(password.Default, in.Password)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudo procesar la password", 1500)
		return
	}

	acc := &core.Account{Email: in.Email, Name: strings.TrimSpace(in.Name), PasswordHash: hash}
	if err := h.Repo.CreateAccount(r.Context(), acc); err != nil {
		if errors.Is(err, core.ErrConflict) {
			WriteError(w, http.StatusConflict, "conflict", "ya existe una cuenta con ese email", 1201)
			return
		}
		logger.From(r.Context()).Error("signup failed", logger.Err(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudo crear la cuenta", 1500)
		return
	}

	h.issueAndRespond(w, r, acc, http.StatusCreated)
}

// ─────────────── POST /api/auth/login ───────────────

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !ReadJSON(w, r, &in) {
		return
	}

	acc, err := h.Repo.GetAccountByEmail(r.Context(), strings.TrimSpace(in.Email))
	if err != nil || !password.Verify(in.Password, acc.PasswordHash) {
		// Mismo error para email inexistente y password incorrecta.
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", "email o password incorrectos", 1003)
		return
	}

	h.issueAndRespond(w, r, acc, http.StatusOK)
}

func (h *AuthHandler) issueAndRespond(w http.ResponseWriter, r *http.Request, acc *core.Account, status int) {
	res, err := h.Rotator.Issue(r.Context(), acc.ID, acc.Email)
	if err != nil {
		logger.From(r.Context()).Error("token issue failed", logger.AccountID(acc.ID), logger.Err(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudieron emitir tokens", 1500)
		return
	}
	http.SetCookie(w, BuildAccessCookie(res.AccessToken, h.Cookies.Domain, h.Cookies.SameSite, h.Cookies.Secure, time.Until(res.AccessExp)))
	http.SetCookie(w, BuildRefreshCookie(res.RefreshToken, h.Cookies.Domain, h.Cookies.SameSite, h.Cookies.Secure, time.Until(res.RefreshExp)))
	WriteJSON(w, status, tokenOut{
		User:        toAccountOut(acc),
		AccessToken: res.AccessToken,
		ExpiresAt:   res.AccessExp.Unix(),
	})
}

// ─────────────── POST /api/auth/refresh ───────────────

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	raw := refreshTokenFrom(r)
	if raw == "" {
		WriteError(w, http.StatusUnauthorized, "invalid_token", "missing refresh token", 1010)
		return
	}

	res, err := h.Rotator.Rotate(r.Context(), raw)
	if err != nil {
		switch {
		case errors.Is(err, refresh.ErrReused):
			// El cliente debe re-loguearse: su sesión fue consumida (o robada).
			h.clearSessionCookies(w)
			WriteError(w, http.StatusUnauthorized, "token_reused", "token already used", 1011)
		case errors.Is(err, refresh.ErrExpired):
			h.clearSessionCookies(w)
			WriteError(w, http.StatusUnauthorized, "token_expired", "refresh token expirado", 1012)
		case errors.Is(err, refresh.ErrInvalidToken):
			WriteError(w, http.StatusUnauthorized, "invalid_token", "refresh token inválido", 1010)
		default:
			logger.From(r.Context()).Error("refresh failed", logger.Err(err))
			WriteError(w, http.StatusInternalServerError, "internal_error", "refresh falló", 1500)
		}
		return
	}

	// El access se reemite siempre, aun en el reuso dentro de ventana.
	http.SetCookie(w, BuildAccessCookie(res.AccessToken, h.Cookies.Domain, h.Cookies.SameSite, h.Cookies.Secure, time.Until(res.AccessExp)))
	if res.Rotated {
		http.SetCookie(w, BuildRefreshCookie(res.RefreshToken, h.Cookies.Domain, h.Cookies.SameSite, h.Cookies.Secure, time.Until(res.RefreshExp)))
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": res.AccessToken,
		"expires_at":   res.AccessExp.Unix(),
		"rotated":      res.Rotated,
	})
}

func refreshTokenFrom(r *http.Request) string {
	if c, err := r.Cookie(RefreshCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	// Fallback para clientes no-browser.
	var in struct {
		RefreshToken string `json:"refresh_token"`
	}
	if strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		body := http.MaxBytesReader(nil, r.Body, 8<<10)
		defer body.Close()
		_ = json.NewDecoder(body).Decode(&in)
	}
	return strings.TrimSpace(in.RefreshToken)
}

// ─────────────── POST /api/auth/logout ───────────────

// Logout borra la sesión que viajó en la cookie de refresh y, si además
// vino un access token válido, revoca todos los refresh de la cuenta
// (logout global). Nunca falla hacia el cliente: un token ausente o
// vencido igual termina con las cookies borradas.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if c, err := r.Cookie(RefreshCookieName); err == nil && c.Value != "" {
		if err := h.Rotator.Forget(ctx, c.Value); err != nil {
			logger.From(ctx).Warn("forget session on logout failed", logger.Err(err))
		}
	}

	// Best effort: la ruta no pasa por RequireAuth, así que el access se
	// valida acá y cualquier fallo se ignora.
	if raw := accessTokenFrom(r); raw != "" && h.Issuer != nil {
		if claims, err := h.Issuer.VerifyAccess(raw); err == nil {
			if err := h.Rotator.Revoke(ctx, claims.AccountID); err != nil {
				logger.From(ctx).Warn("revoke on logout failed", logger.Err(err))
			}
		}
	}

	h.clearSessionCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, BuildAccessDeletionCookie(h.Cookies.Domain, h.Cookies.SameSite, h.Cookies.Secure))
	http.SetCookie(w, BuildDeletionCookie(h.Cookies.Domain, h.Cookies.SameSite, h.Cookies.Secure))
}

// ─────────────── GET /api/auth/user ───────────────

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "no session", 1001)
		return
	}
	acc, err := h.Repo.GetAccountByID(r.Context(), claims.AccountID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "not_found", "cuenta no encontrada", 1404)
		return
	}
	WriteJSON(w, http.StatusOK, toAccountOut(acc))
}

// ─────────────── PUT /api/auth/user/password ───────────────

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "no session", 1001)
		return
	}
	var in struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !ReadJSON(w, r, &in) {
		return
	}
	if len(in.NewPassword) < 8 {
		WriteError(w, http.StatusBadRequest, "invalid_request", "password demasiado corta (mínimo 8)", 1103)
		return
	}

	acc, err := h.Repo.GetAccountByID(r.Context(), claims.AccountID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "not_found", "cuenta no encontrada", 1404)
		return
	}
	if !password.Verify(in.CurrentPassword, acc.PasswordHash) {
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", "password actual incorrecta", 1003)
		return
	}

	hash, err := password.Hash(password.Default, in.NewPassword)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudo procesar la password", 1500)
		return
	}
	if err := h.Repo.UpdateAccountPassword(r.Context(), acc.ID, hash); err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudo actualizar la password", 1500)
		return
	}
	// Cambió la password: matar todas las sesiones abiertas.
	if err := h.Rotator.Revoke(r.Context(), acc.ID); err != nil {
		logger.From(r.Context()).Warn("revoke after password change failed", logger.Err(err))
	}
	h.clearSessionCookies(w)
	w.WriteHeader(http.StatusNoContent)
}
