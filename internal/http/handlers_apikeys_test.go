package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/mailjohn/internal/auth/apikey"
	"github.com/dropDatabas3/mailjohn/internal/cache"
	"github.com/dropDatabas3/mailjohn/internal/security/token"
	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

// fakeKeyRepo cubre sólo RevokeAPIKey sobre el mismo mapa de keys que usa
// el verificador, como hace el repositorio real.
type fakeKeyRepo struct {
	core.Repository

	store *fakeKeyStore
}

func (f *fakeKeyRepo) RevokeAPIKey(_ context.Context, accountID, id string) (string, error) {
	for hash, k := range f.store.keys {
		if k.ID == id && k.AccountID == accountID && k.Status == core.APIKeyStatusActive {
			now := time.Now().UTC()
			k.Status = core.APIKeyStatusInactive
			k.RevokedAt = &now
			return hash, nil
		}
	}
	return "", core.ErrNotFound
}

func deleteAPIKey(h *APIKeyHandler, accountID, id string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodDelete, "/api/api-keys/"+id, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, claimsKey, &token.Claims{AccountID: accountID})
	rec := httptest.NewRecorder()
	h.Revoke(rec, req.WithContext(ctx))
	return rec
}

func TestRevokeEndpoint_RevokedKeyStopsVerifying(t *testing.T) {
	t.Parallel()

	pair, err := apikey.NewPair(true)
	require.NoError(t, err)

	ks := &fakeKeyStore{keys: map[string]*core.APIKey{
		apikey.HashKey(pair.Key): {
			ID:         "key-1",
			AccountID:  "acc-1",
			Name:       "backend",
			SecretHash: apikey.HashSecret(pair.Secret),
			Status:     core.APIKeyStatusActive,
		},
	}}
	verifier := apikey.NewVerifier(ks, cache.NewMemory("test", time.Minute))
	h := &APIKeyHandler{Repo: &fakeKeyRepo{store: ks}, Keys: verifier}
	ctx := context.Background()

	// Primer Verify calienta el cache del verificador.
	_, err = verifier.Verify(ctx, pair.Key, pair.Secret)
	require.NoError(t, err)

	rec := deleteAPIKey(h, "acc-1", "key-1")
	require.Equal(t, http.StatusNoContent, rec.Code)

	// La key revocada no puede seguir autenticando desde el cache.
	_, err = verifier.Verify(ctx, pair.Key, pair.Secret)
	require.ErrorIs(t, err, apikey.ErrInvalidCredentials)
}

func TestRevokeEndpoint_UnknownKeyIs404(t *testing.T) {
	t.Parallel()

	h := &APIKeyHandler{Repo: &fakeKeyRepo{store: &fakeKeyStore{keys: map[string]*core.APIKey{}}}}
	rec := deleteAPIKey(h, "acc-1", "nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
