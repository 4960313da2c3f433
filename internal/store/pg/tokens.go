package pg

import (
	"context"

	"github.com/google/uuid"

	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

func (s *Store) CreateRefreshToken(ctx context.Context, t *core.RefreshToken) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	const q = `
		INSERT INTO refresh_token (id, account_id, token_hash, used, issued_at, expires_at)
		VALUES ($1, $2, $3, FALSE, NOW(), $4)
		RETURNING issued_at`
	err := s.pool.QueryRow(ctx, q, t.ID, t.AccountID, t.TokenHash, t.ExpiresAt).
		Scan(&t.IssuedAt)
	return mapErr(err)
}

func (s *Store) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*core.RefreshToken, error) {
	const q = `
		SELECT id, account_id, token_hash, used, used_at, issued_at, expires_at
		FROM refresh_token WHERE token_hash = $1`
	var t core.RefreshToken
	err := s.pool.QueryRow(ctx, q, tokenHash).Scan(
		&t.ID, &t.AccountID, &t.TokenHash, &t.Used, &t.UsedAt, &t.IssuedAt, &t.ExpiresAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

// RotateRefreshToken marca el token viejo como usado y crea el reemplazo en
// una sola transacción. El UPDATE condicional (used = FALSE) hace de lock:
// dos rotaciones concurrentes del mismo token hacen que una pierda con
// ErrConflict en vez de emitir dos refresh válidos.
func (s *Store) RotateRefreshToken(ctx context.Context, oldID string, next *core.RefreshToken) error {
	if next.ID == "" {
		next.ID = uuid.NewString()
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const qUse = `
		UPDATE refresh_token SET used = TRUE, used_at = NOW()
		WHERE id = $1 AND used = FALSE`
	ct, err := tx.Exec(ctx, qUse, oldID)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return core.ErrConflict
	}

	const qIns = `
		INSERT INTO refresh_token (id, account_id, token_hash, used, issued_at, expires_at)
		VALUES ($1, $2, $3, FALSE, NOW(), $4)
		RETURNING issued_at`
	if err := tx.QueryRow(ctx, qIns, next.ID, next.AccountID, next.TokenHash, next.ExpiresAt).
		Scan(&next.IssuedAt); err != nil {
		return mapErr(err)
	}

	return tx.Commit(ctx)
}

// PurgeExpiredRefreshTokens borra tokens vencidos. Con accountID vacío
// purga todas las cuentas (housekeeping global).
func (s *Store) PurgeExpiredRefreshTokens(ctx context.Context, accountID string) (int64, error) {
	q := `DELETE FROM refresh_token WHERE expires_at < NOW()`
	args := []any{}
	if accountID != "" {
		q += ` AND account_id = $1`
		args = append(args, accountID)
	}
	ct, err := s.pool.Exec(ctx, q, args...)
	if err != nil {
		return 0, mapErr(err)
	}
	return ct.RowsAffected(), nil
}

func (s *Store) RevokeRefreshTokens(ctx context.Context, accountID string) error {
	const q = `DELETE FROM refresh_token WHERE account_id = $1`
	_, err := s.pool.Exec(ctx, q, accountID)
	return mapErr(err)
}

func (s *Store) DeleteRefreshTokenByHash(ctx context.Context, tokenHash string) error {
	const q = `DELETE FROM refresh_token WHERE token_hash = $1`
	ct, err := s.pool.Exec(ctx, q, tokenHash)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
