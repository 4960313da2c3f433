package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
)

// AccessCookieName y RefreshCookieName son las cookies httpOnly de la
// sesión. El access viaja en cada request del panel; el refresh queda
// restringido a /api/auth.
const (
	AccessCookieName  = "mj_access"
	RefreshCookieName = "mj_refresh"
)

func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func buildSessionCookie(name, value, path, domain, sameSite string, secure bool, ttl time.Duration) *http.Cookie {
	ss := parseSameSite(sameSite)
	if ss == http.SameSiteNoneMode && !secure {
		// Algunos navegadores rechazan SameSite=None sin Secure.
		logger.L().Warn("cookie: SameSite=None sin Secure", logger.String("domain", domain))
	}
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  time.Now().UTC().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: ss,
	}
	if domain != "" {
		c.Domain = domain
	}
	return c
}

// BuildAccessCookie arma la cookie del access token. Path raíz: el panel
// la manda en cada request.
func BuildAccessCookie(value, domain, sameSite string, secure bool, ttl time.Duration) *http.Cookie {
	return buildSessionCookie(AccessCookieName, value, "/", domain, sameSite, secure, ttl)
}

// BuildRefreshCookie arma la cookie del refresh token. Path restringido al
// endpoint de refresh para que no viaje en cada request.
func BuildRefreshCookie(value, domain, sameSite string, secure bool, ttl time.Duration) *http.Cookie {
	return buildSessionCookie(RefreshCookieName, value, "/api/auth", domain, sameSite, secure, ttl)
}

func buildDeletionCookie(name, path, domain, sameSite string, secure bool) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   secure,
		HttpOnly: true,
		SameSite: parseSameSite(sameSite),
	}
	if domain != "" {
		c.Domain = domain
	}
	return c
}

// BuildAccessDeletionCookie y BuildDeletionCookie borran las cookies de
// sesión del browser. Mismo nombre/domain/path para que el user-agent
// las sobreescriba.
func BuildAccessDeletionCookie(domain, sameSite string, secure bool) *http.Cookie {
	return buildDeletionCookie(AccessCookieName, "/", domain, sameSite, secure)
}

func BuildDeletionCookie(domain, sameSite string, secure bool) *http.Cookie {
	return buildDeletionCookie(RefreshCookieName, "/api/auth", domain, sameSite, secure)
}
