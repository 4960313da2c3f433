package pg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

func (s *Store) CreateLog(ctx context.Context, l *core.EmailLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	const q = `
		INSERT INTO email_log (id, account_id, template_id, recipient, subject, content, status, error, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at`
	err := s.pool.QueryRow(ctx, q,
		l.ID, l.AccountID, l.TemplateID, l.Recipient, l.Subject, l.Content,
		l.Status, l.Error, l.SentAt).
		Scan(&l.CreatedAt)
	return mapErr(err)
}

func (s *Store) GetLog(ctx context.Context, accountID, id string) (*core.EmailLog, error) {
	const q = `
		SELECT id, account_id, template_id, recipient, subject, content, status, error, sent_at, created_at
		FROM email_log WHERE id = $1 AND account_id = $2`
	var l core.EmailLog
	err := s.pool.QueryRow(ctx, q, id, accountID).Scan(
		&l.ID, &l.AccountID, &l.TemplateID, &l.Recipient, &l.Subject, &l.Content,
		&l.Status, &l.Error, &l.SentAt, &l.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &l, nil
}

func (s *Store) ListLogs(ctx context.Context, f core.LogFilter) ([]core.EmailLog, int64, error) {
	where := []string{"account_id = $1"}
	args := []any{f.AccountID}

	if f.TemplateID != "" {
		args = append(args, f.TemplateID)
		where = append(where, fmt.Sprintf("template_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("(recipient ILIKE $%d OR subject ILIKE $%d)", len(args), len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM email_log WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, mapErr(err)
	}

	offset, limit := core.Page(f.Page, f.Limit)
	args = append(args, limit, offset)
	q := fmt.Sprintf(`
		SELECT id, account_id, template_id, recipient, subject, content, status, error, sent_at, created_at
		FROM email_log WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, cond, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, mapErr(err)
	}
	defer rows.Close()

	var out []core.EmailLog
	for rows.Next() {
		var l core.EmailLog
		if err := rows.Scan(&l.ID, &l.AccountID, &l.TemplateID, &l.Recipient, &l.Subject,
			&l.Content, &l.Status, &l.Error, &l.SentAt, &l.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

func (s *Store) MarkLogSent(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE email_log SET status = 'SENT', sent_at = $2, error = NULL WHERE id = $1`
	ct, err := s.pool.Exec(ctx, q, id, at)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) MarkLogFailed(ctx context.Context, id string, errMsg string) error {
	const q = `UPDATE email_log SET status = 'FAILED', error = $2, sent_at = NULL WHERE id = $1`
	ct, err := s.pool.Exec(ctx, q, id, errMsg)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
