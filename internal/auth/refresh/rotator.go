// Package refresh implementa la rotación de refresh tokens con detección
// de reuso. Cada refresh válido se usa una sola vez; reusarlo fuera de la
// ventana de gracia invalida el intento.
package refresh

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
	"github.com/dropDatabas3/mailjohn/internal/security/token"
	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

var (
	ErrInvalidToken = errors.New("refresh: invalid token")
	ErrExpired      = errors.New("refresh: token expired")
	ErrReused       = errors.New("refresh: token already used")
)

// DefaultReuseWindow tolera el retry inmediato de un cliente que perdió la
// respuesta (doble submit, refresh paralelo de dos tabs). Dentro de la
// ventana se reemite sólo el access token; el refresh no rota de nuevo.
const DefaultReuseWindow = 5 * time.Second

// Store es el subconjunto del repositorio que usa el rotador.
type Store interface {
	CreateRefreshToken(ctx context.Context, t *core.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*core.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldID string, next *core.RefreshToken) error
	PurgeExpiredRefreshTokens(ctx context.Context, accountID string) (int64, error)
	RevokeRefreshTokens(ctx context.Context, accountID string) error
	DeleteRefreshTokenByHash(ctx context.Context, tokenHash string) error
}

// Result es lo que se devuelve al handler para setear cookie y body.
type Result struct {
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string // vacío si no hubo rotación (reuso dentro de ventana)
	RefreshExp   time.Time
	Rotated      bool
}

type Rotator struct {
	store       Store
	issuer      *token.Issuer
	reuseWindow time.Duration
}

func NewRotator(store Store, issuer *token.Issuer, reuseWindow time.Duration) *Rotator {
	if reuseWindow <= 0 {
		reuseWindow = DefaultReuseWindow
	}
	return &Rotator{store: store, issuer: issuer, reuseWindow: reuseWindow}
}

// Issue emite el par access+refresh inicial (login/signup) y persiste el
// hash del refresh.
func (r *Rotator) Issue(ctx context.Context, accountID, email string) (*Result, error) {
	access, accessExp, err := r.issuer.IssueAccess(accountID, email)
	if err != nil {
		return nil, err
	}
	rawRefresh, _, refreshExp, err := r.issuer.IssueRefresh(accountID)
	if err != nil {
		return nil, err
	}
	if err := r.store.CreateRefreshToken(ctx, &core.RefreshToken{
		AccountID: accountID,
		TokenHash: token.SHA256Base64URL(rawRefresh),
		ExpiresAt: refreshExp,
	}); err != nil {
		return nil, err
	}
	return &Result{
		AccessToken:  access,
		AccessExp:    accessExp,
		RefreshToken: rawRefresh,
		RefreshExp:   refreshExp,
		Rotated:      true,
	}, nil
}

// Rotate valida el refresh recibido y, si está sin usar, lo marca usado y
// emite un par nuevo en forma atómica.
//
// Reuso dentro de la ventana de gracia: se reemite sólo el access token y
// el refresh del cliente sigue siendo el que ya tenía (el que salió de la
// rotación original). Reuso fuera de la ventana: ErrReused.
func (r *Rotator) Rotate(ctx context.Context, rawRefresh string) (*Result, error) {
	claims, err := r.issuer.VerifyRefresh(rawRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}

	stored, err := r.store.GetRefreshTokenByHash(ctx, token.SHA256Base64URL(rawRefresh))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if stored.AccountID != claims.AccountID {
		return nil, ErrInvalidToken
	}

	now := time.Now().UTC()
	if now.After(stored.ExpiresAt) {
		return nil, ErrExpired
	}

	log := logger.From(ctx).With(
		logger.Component("Rotator"),
		logger.AccountID(stored.AccountID),
	)

	if stored.Used {
		if stored.UsedAt != nil && now.Sub(*stored.UsedAt) <= r.reuseWindow {
			// Retry benigno: access nuevo, sin rotar el refresh.
			access, accessExp, err := r.issuer.IssueAccess(claims.AccountID, claims.Email)
			if err != nil {
				return nil, err
			}
			log.Debug("refresh reuse within grace window, reissuing access only")
			return &Result{AccessToken: access, AccessExp: accessExp, Rotated: false}, nil
		}
		log.Warn("refresh token reuse detected")
		return nil, ErrReused
	}

	access, accessExp, err := r.issuer.IssueAccess(claims.AccountID, claims.Email)
	if err != nil {
		return nil, err
	}
	nextRaw, _, nextExp, err := r.issuer.IssueRefresh(claims.AccountID)
	if err != nil {
		return nil, err
	}
	next := &core.RefreshToken{
		AccountID: stored.AccountID,
		TokenHash: token.SHA256Base64URL(nextRaw),
		ExpiresAt: nextExp,
	}
	if err := r.store.RotateRefreshToken(ctx, stored.ID, next); err != nil {
		if errors.Is(err, core.ErrConflict) {
			// Perdimos la carrera contra otra rotación del mismo token. El
			// ganador ya lo marcó usado; aplica la misma ventana de gracia
			// que un retry que hubiera llegado serializado.
			cur, gerr := r.store.GetRefreshTokenByHash(ctx, token.SHA256Base64URL(rawRefresh))
			if gerr == nil && cur.Used && cur.UsedAt != nil && time.Now().UTC().Sub(*cur.UsedAt) <= r.reuseWindow {
				log.Debug("lost rotation race within grace window, reissuing access only")
				return &Result{AccessToken: access, AccessExp: accessExp, Rotated: false}, nil
			}
			log.Warn("refresh token reuse detected")
			return nil, ErrReused
		}
		return nil, err
	}

	// Limpieza oportunista de tokens vencidos de la cuenta.
	if n, err := r.store.PurgeExpiredRefreshTokens(ctx, stored.AccountID); err == nil && n > 0 {
		log.Debug("purged expired refresh tokens", logger.Count(int(n)))
	}

	return &Result{
		AccessToken:  access,
		AccessExp:    accessExp,
		RefreshToken: nextRaw,
		RefreshExp:   nextExp,
		Rotated:      true,
	}, nil
}

// Revoke invalida todos los refresh de la cuenta (logout global).
func (r *Rotator) Revoke(ctx context.Context, accountID string) error {
	return r.store.RevokeRefreshTokens(ctx, accountID)
}

// Forget borra la sesión asociada a un refresh token concreto (logout de
// un solo dispositivo). Token desconocido no es error.
func (r *Rotator) Forget(ctx context.Context, rawRefresh string) error {
	if rawRefresh == "" {
		return nil
	}
	err := r.store.DeleteRefreshTokenByHash(ctx, token.SHA256Base64URL(rawRefresh))
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	return err
}
