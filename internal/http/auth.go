package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/dropDatabas3/mailjohn/internal/security/token"
)

type ctxKey int

const claimsKey ctxKey = iota

// ClaimsFrom extrae las claims del access token validado por RequireAuth.
func ClaimsFrom(ctx context.Context) (*token.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*token.Claims)
	return c, ok
}

// RequireAuth valida el access token y deja las claims en el contexto.
// Acepta header Authorization (Bearer) o la cookie de sesión; el header
// gana si vienen ambos. Sin token válido: 401.
func RequireAuth(issuer *token.Issuer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := accessTokenFrom(r)
			if raw == "" {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "missing access token", 1001)
				return
			}
			claims, err := issuer.VerifyAccess(raw)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token", 1002)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func accessTokenFrom(r *http.Request) string {
	if raw := bearerToken(r); raw != "" {
		return raw
	}
	if c, err := r.Cookie(AccessCookieName); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}
