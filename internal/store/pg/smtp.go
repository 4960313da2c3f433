package pg

import (
	"context"

	"github.com/google/uuid"

	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

// UpsertSMTPConfig deja una única config activa por cuenta. Desactivar y
// crear van en la misma transacción para no dejar la cuenta sin config
// visible a mitad de camino.
func (s *Store) UpsertSMTPConfig(ctx context.Context, c *core.SMTPConfig) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const qOff = `UPDATE smtp_config SET active = FALSE, updated_at = NOW() WHERE account_id = $1 AND active`
	if _, err := tx.Exec(ctx, qOff, c.AccountID); err != nil {
		return mapErr(err)
	}

	const qIns = `
		INSERT INTO smtp_config (id, account_id, host, port, username, password_enc, from_name, from_email, reply_to_email, tls_mode, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE, NOW(), NOW())
		RETURNING created_at, updated_at`
	if err := tx.QueryRow(ctx, qIns,
		c.ID, c.AccountID, c.Host, c.Port, c.Username, c.PasswordEnc,
		c.FromName, c.FromEmail, c.ReplyToEmail, c.TLSMode).
		Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return mapErr(err)
	}
	c.Active = true

	return tx.Commit(ctx)
}

func (s *Store) GetActiveSMTPConfig(ctx context.Context, accountID string) (*core.SMTPConfig, error) {
	const q = `
		SELECT id, account_id, host, port, username, password_enc, from_name, from_email, reply_to_email, tls_mode, active, created_at, updated_at
		FROM smtp_config WHERE account_id = $1 AND active
		ORDER BY updated_at DESC LIMIT 1`
	var c core.SMTPConfig
	err := s.pool.QueryRow(ctx, q, accountID).Scan(
		&c.ID, &c.AccountID, &c.Host, &c.Port, &c.Username, &c.PasswordEnc,
		&c.FromName, &c.FromEmail, &c.ReplyToEmail, &c.TLSMode, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (s *Store) DeactivateSMTPConfigs(ctx context.Context, accountID string) error {
	const q = `UPDATE smtp_config SET active = FALSE, updated_at = NOW() WHERE account_id = $1 AND active`
	_, err := s.pool.Exec(ctx, q, accountID)
	return mapErr(err)
}
