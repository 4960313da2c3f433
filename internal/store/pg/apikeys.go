package pg

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

func (s *Store) CreateAPIKey(ctx context.Context, k *core.APIKey) error {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	const q = `
		INSERT INTO api_key (id, account_id, name, key_prefix, key_hash, secret_hash, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at`
	err := s.pool.QueryRow(ctx, q,
		k.ID, k.AccountID, k.Name, k.KeyPrefix, k.KeyHash, k.SecretHash, core.APIKeyStatusActive).
		Scan(&k.CreatedAt)
	if err == nil {
		k.Status = core.APIKeyStatusActive
	}
	return mapErr(err)
}

func (s *Store) GetAPIKeyByHash(ctx context.Context, keyHash string) (*core.APIKey, error) {
	const q = `
		SELECT id, account_id, name, key_prefix, key_hash, secret_hash, status, last_used_at, created_at, revoked_at
		FROM api_key WHERE key_hash = $1 AND status = 'ACTIVE'`
	var k core.APIKey
	err := s.pool.QueryRow(ctx, q, keyHash).Scan(
		&k.ID, &k.AccountID, &k.Name, &k.KeyPrefix, &k.KeyHash, &k.SecretHash,
		&k.Status, &k.LastUsedAt, &k.CreatedAt, &k.RevokedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &k, nil
}

func (s *Store) ListAPIKeys(ctx context.Context, accountID string) ([]core.APIKey, error) {
	const q = `
		SELECT id, account_id, name, key_prefix, status, last_used_at, created_at, revoked_at
		FROM api_key WHERE account_id = $1
		ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, q, accountID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []core.APIKey
	for rows.Next() {
		var k core.APIKey
		if err := rows.Scan(&k.ID, &k.AccountID, &k.Name, &k.KeyPrefix,
			&k.Status, &k.LastUsedAt, &k.CreatedAt, &k.RevokedAt); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (s *Store) RenameAPIKey(ctx context.Context, accountID, id, name string) error {
	const q = `UPDATE api_key SET name = $3 WHERE id = $1 AND account_id = $2`
	ct, err := s.pool.Exec(ctx, q, id, accountID, name)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) RevokeAPIKey(ctx context.Context, accountID, id string) (string, error) {
	// Soft revoke: el registro queda para auditoría y listados. Devuelve
	// el key_hash para que el caller invalide el cache de lookups.
	const q = `
		UPDATE api_key SET status = 'INACTIVE', revoked_at = NOW()
		WHERE id = $1 AND account_id = $2 AND status = 'ACTIVE'
		RETURNING key_hash`
	var keyHash string
	if err := s.pool.QueryRow(ctx, q, id, accountID).Scan(&keyHash); err != nil {
		return "", mapErr(err)
	}
	return keyHash, nil
}

func (s *Store) TouchAPIKey(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE api_key SET last_used_at = $2 WHERE id = $1`
	_, err := s.pool.Exec(ctx, q, id, at)
	return mapErr(err)
}
