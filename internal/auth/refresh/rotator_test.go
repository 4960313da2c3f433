package refresh

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dropDatabas3/mailjohn/internal/security/token"
	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

type fakeStore struct {
	byHash  map[string]*core.RefreshToken
	byID    map[string]*core.RefreshToken
	nextID  int
	purged  int
	revoked []string
	// loseRotateRace hace que la próxima rotación pierda contra una
	// rotación concurrente: el "ganador" ya marcó el token como usado.
	loseRotateRace bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byHash: map[string]*core.RefreshToken{},
		byID:   map[string]*core.RefreshToken{},
	}
}

func (f *fakeStore) CreateRefreshToken(_ context.Context, t *core.RefreshToken) error {
	f.nextID++
	if t.ID == "" {
		t.ID = fmt.Sprintf("rt-%d", f.nextID)
	}
	t.IssuedAt = time.Now().UTC()
	f.byHash[t.TokenHash] = t
	f.byID[t.ID] = t
	return nil
}

func (f *fakeStore) GetRefreshTokenByHash(_ context.Context, tokenHash string) (*core.RefreshToken, error) {
	t, ok := f.byHash[tokenHash]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) RotateRefreshToken(ctx context.Context, oldID string, next *core.RefreshToken) error {
	old, ok := f.byID[oldID]
	if !ok || old.Used {
		return core.ErrConflict
	}
	old.Used = true
	if f.loseRotateRace {
		f.loseRotateRace = false
		if old.UsedAt == nil {
			now := time.Now().UTC()
			old.UsedAt = &now
		}
		return core.ErrConflict
	}
	now := time.Now().UTC()
	old.UsedAt = &now
	return f.CreateRefreshToken(ctx, next)
}

func (f *fakeStore) PurgeExpiredRefreshTokens(_ context.Context, accountID string) (int64, error) {
	var n int64
	for h, t := range f.byHash {
		if t.AccountID == accountID && time.Now().After(t.ExpiresAt) {
			delete(f.byHash, h)
			delete(f.byID, t.ID)
			n++
		}
	}
	f.purged += int(n)
	return n, nil
}

func (f *fakeStore) DeleteRefreshTokenByHash(_ context.Context, tokenHash string) error {
	t, ok := f.byHash[tokenHash]
	if !ok {
		return core.ErrNotFound
	}
	delete(f.byHash, tokenHash)
	delete(f.byID, t.ID)
	return nil
}

func (f *fakeStore) RevokeRefreshTokens(_ context.Context, accountID string) error {
	f.revoked = append(f.revoked, accountID)
	for h, t := range f.byHash {
		if t.AccountID == accountID {
			delete(f.byHash, h)
			delete(f.byID, t.ID)
		}
	}
	return nil
}

func testIssuer() *token.Issuer {
	return token.NewIssuer("mailjohn-test", "access-secret-for-tests", "refresh-secret-for-tests",
		15*time.Minute, 7*24*time.Hour)
}

func TestIssueAndRotate_HappyPath(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	r := NewRotator(st, testIssuer(), DefaultReuseWindow)
	ctx := context.Background()

	first, err := r.Issue(ctx, "acc-1", "ana@example.com")
	if err != nil {
		t.Fatalf("Issue err: %v", err)
	}
	if first.AccessToken == "" || first.RefreshToken == "" {
		t.Fatalf("missing tokens: %+v", first)
	}

	second, err := r.Rotate(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("Rotate err: %v", err)
	}
	if !second.Rotated {
		t.Fatalf("expected rotation")
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatalf("refresh token not rotated")
	}

	// El viejo quedó marcado usado.
	old, err := st.GetRefreshTokenByHash(ctx, token.SHA256Base64URL(first.RefreshToken))
	if err != nil {
		t.Fatal(err)
	}
	if !old.Used || old.UsedAt == nil {
		t.Fatalf("old token not marked used: %+v", old)
	}
}

func TestRotate_ReuseWithinWindowReissuesAccessOnly(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	r := NewRotator(st, testIssuer(), DefaultReuseWindow)
	ctx := context.Background()

	first, err := r.Issue(ctx, "acc-1", "ana@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Rotate(ctx, first.RefreshToken); err != nil {
		t.Fatalf("first rotate err: %v", err)
	}

	// Segundo uso inmediato del mismo refresh: dentro de la ventana.
	res, err := r.Rotate(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("reuse within window err: %v", err)
	}
	if res.Rotated {
		t.Fatalf("must not rotate on grace reuse")
	}
	if res.AccessToken == "" {
		t.Fatalf("expected fresh access token")
	}
	if res.RefreshToken != "" {
		t.Fatalf("no new refresh expected on grace reuse")
	}
}

func TestRotate_LostRaceWithinWindowReissuesAccessOnly(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	r := NewRotator(st, testIssuer(), DefaultReuseWindow)
	ctx := context.Background()

	first, err := r.Issue(ctx, "acc-1", "ana@example.com")
	if err != nil {
		t.Fatal(err)
	}

	// La rotación pierde la carrera: otro request ya consumió el token
	// un instante antes. Debe resolverse igual que un retry serializado.
	st.loseRotateRace = true
	res, err := r.Rotate(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("lost race within window err: %v", err)
	}
	if res.Rotated {
		t.Fatalf("must not rotate after losing the race")
	}
	if res.AccessToken == "" {
		t.Fatalf("expected fresh access token")
	}
	if res.RefreshToken != "" {
		t.Fatalf("no new refresh expected after losing the race")
	}
}

func TestRotate_LostRaceOutsideWindowFails(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	r := NewRotator(st, testIssuer(), time.Millisecond)
	ctx := context.Background()

	first, err := r.Issue(ctx, "acc-1", "ana@example.com")
	if err != nil {
		t.Fatal(err)
	}

	// Marca el token como usado hace rato, fuera de la ventana, y fuerza
	// el conflicto: esto es reuso real, no un retry.
	stored := st.byHash[token.SHA256Base64URL(first.RefreshToken)]
	usedAt := time.Now().UTC().Add(-time.Minute)
	stored.UsedAt = &usedAt
	st.loseRotateRace = true

	if _, err := r.Rotate(ctx, first.RefreshToken); !errors.Is(err, ErrReused) {
		t.Fatalf("err = %v, want ErrReused", err)
	}
}

func TestRotate_ReuseOutsideWindowFails(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	// Ventana mínima para no dormir 5s en el test.
	r := NewRotator(st, testIssuer(), time.Millisecond)
	ctx := context.Background()

	first, err := r.Issue(ctx, "acc-1", "ana@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Rotate(ctx, first.RefreshToken); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)

	if _, err := r.Rotate(ctx, first.RefreshToken); !errors.Is(err, ErrReused) {
		t.Fatalf("err = %v, want ErrReused", err)
	}
}

func TestRotate_GarbageToken(t *testing.T) {
	t.Parallel()

	r := NewRotator(newFakeStore(), testIssuer(), DefaultReuseWindow)
	if _, err := r.Rotate(context.Background(), "not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestRotate_ValidJWTUnknownToStore(t *testing.T) {
	t.Parallel()

	iss := testIssuer()
	raw, _, _, err := iss.IssueRefresh("acc-1")
	if err != nil {
		t.Fatal(err)
	}
	r := NewRotator(newFakeStore(), iss, DefaultReuseWindow)
	if _, err := r.Rotate(context.Background(), raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestRotate_ExpiredInStore(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	iss := testIssuer()
	r := NewRotator(st, iss, DefaultReuseWindow)
	ctx := context.Background()

	raw, _, _, err := iss.IssueRefresh("acc-1")
	if err != nil {
		t.Fatal(err)
	}
	if err := st.CreateRefreshToken(ctx, &core.RefreshToken{
		AccountID: "acc-1",
		TokenHash: token.SHA256Base64URL(raw),
		ExpiresAt: time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Rotate(ctx, raw); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
}

func TestForget_DropsOnlyThatSession(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	r := NewRotator(st, testIssuer(), DefaultReuseWindow)
	ctx := context.Background()

	a, err := r.Issue(ctx, "acc-1", "ana@example.com")
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Issue(ctx, "acc-1", "ana@example.com")
	if err != nil {
		t.Fatal(err)
	}

	if err := r.Forget(ctx, a.RefreshToken); err != nil {
		t.Fatalf("Forget err: %v", err)
	}
	if _, err := r.Rotate(ctx, a.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken for forgotten session", err)
	}
	if _, err := r.Rotate(ctx, b.RefreshToken); err != nil {
		t.Fatalf("other session must survive: %v", err)
	}

	// Token desconocido o vacío no es error.
	if err := r.Forget(ctx, "never-issued"); err != nil {
		t.Fatalf("unknown token: %v", err)
	}
	if err := r.Forget(ctx, ""); err != nil {
		t.Fatalf("empty token: %v", err)
	}
}

func TestRevoke_DropsAllAccountTokens(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	r := NewRotator(st, testIssuer(), DefaultReuseWindow)
	ctx := context.Background()

	res, err := r.Issue(ctx, "acc-1", "ana@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Revoke(ctx, "acc-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Rotate(ctx, res.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken after revoke", err)
	}
}
