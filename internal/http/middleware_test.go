package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/mailjohn/internal/security/token"
)

func TestWithLogging_PassesThroughStatusAndBody(t *testing.T) {
	t.Parallel()

	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/email/send", nil)
	rec := httptest.NewRecorder()
	WithLogging(inner).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, `{"ok":true}`, rec.Body.String())
}

func TestWithLogging_DefaultsToOKOnImplicitWrite(t *testing.T) {
	t.Parallel()

	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hola"))
	})

	rec := httptest.NewRecorder()
	WithLogging(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "hola", rec.Body.String())
}

// ─── RequireAuth ───

func authTestIssuer() *token.Issuer {
	return token.NewIssuer("mailjohn-test", "access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

func claimsEcho(t *testing.T, wantAccount string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		require.True(t, ok, "claims must be in context")
		require.Equal(t, wantAccount, claims.AccountID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_BearerHeader(t *testing.T) {
	t.Parallel()

	iss := authTestIssuer()
	access, _, err := iss.IssueAccess("acc-1", "ana@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	RequireAuth(iss)(claimsEcho(t, "acc-1")).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_AccessCookieFallback(t *testing.T) {
	t.Parallel()

	iss := authTestIssuer()
	access, _, err := iss.IssueAccess("acc-1", "ana@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookieName, Value: access})
	rec := httptest.NewRecorder()
	RequireAuth(iss)(claimsEcho(t, "acc-1")).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_HeaderWinsOverCookie(t *testing.T) {
	t.Parallel()

	iss := authTestIssuer()
	fromHeader, _, err := iss.IssueAccess("acc-header", "ana@example.com")
	require.NoError(t, err)
	fromCookie, _, err := iss.IssueAccess("acc-cookie", "ana@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
	req.Header.Set("Authorization", "Bearer "+fromHeader)
	req.AddCookie(&http.Cookie{Name: AccessCookieName, Value: fromCookie})
	rec := httptest.NewRecorder()
	RequireAuth(iss)(claimsEcho(t, "acc-header")).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_MissingOrInvalidToken(t *testing.T) {
	t.Parallel()

	iss := authTestIssuer()
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run without a valid token")
	})

	for name, build := range map[string]func() *http.Request{
		"sin token": func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
		},
		"cookie basura": func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
			r.AddCookie(&http.Cookie{Name: AccessCookieName, Value: "no-es-un-jwt"})
			return r
		},
	} {
		rec := httptest.NewRecorder()
		RequireAuth(iss)(next).ServeHTTP(rec, build())
		require.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}
