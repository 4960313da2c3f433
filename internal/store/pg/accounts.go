package pg

import (
	"context"

	"github.com/google/uuid"

	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

func (s *Store) CreateAccount(ctx context.Context, a *core.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	const q = `
		INSERT INTO account (id, email, name, password_hash, created_at, updated_at)
		VALUES ($1, LOWER($2), $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at`
	err := s.pool.QueryRow(ctx, q, a.ID, a.Email, a.Name, a.PasswordHash).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	return mapErr(err)
}

func (s *Store) GetAccountByID(ctx context.Context, id string) (*core.Account, error) {
	const q = `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM account WHERE id = $1`
	var a core.Account
	err := s.pool.QueryRow(ctx, q, id).
		Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*core.Account, error) {
	const q = `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM account WHERE LOWER(email) = LOWER($1)`
	var a core.Account
	err := s.pool.QueryRow(ctx, q, email).
		Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (s *Store) UpdateAccountPassword(ctx context.Context, id, passwordHash string) error {
	const q = `UPDATE account SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	ct, err := s.pool.Exec(ctx, q, id, passwordHash)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
