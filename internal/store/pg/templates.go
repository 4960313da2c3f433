package pg

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

func (s *Store) CreateTemplate(ctx context.Context, t *core.EmailTemplate) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = core.TemplateStatusDraft
	}
	const q = `
		INSERT INTO email_template (id, account_id, name, subject, content, type, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at`
	err := s.pool.QueryRow(ctx, q,
		t.ID, t.AccountID, t.Name, t.Subject, t.Content, t.Type, t.Status).
		Scan(&t.CreatedAt, &t.UpdatedAt)
	return mapErr(err)
}

func (s *Store) GetTemplate(ctx context.Context, accountID, id string) (*core.EmailTemplate, error) {
	const q = `
		SELECT id, account_id, name, subject, content, type, status, created_at, updated_at
		FROM email_template WHERE id = $1 AND account_id = $2`
	var t core.EmailTemplate
	err := s.pool.QueryRow(ctx, q, id, accountID).Scan(
		&t.ID, &t.AccountID, &t.Name, &t.Subject, &t.Content, &t.Type, &t.Status,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (s *Store) ListTemplates(ctx context.Context, f core.TemplateFilter) ([]core.EmailTemplate, int64, error) {
	where := []string{"account_id = $1"}
	args := []any{f.AccountID}

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR subject ILIKE $%d)", len(args), len(args)))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM email_template WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, mapErr(err)
	}

	offset, limit := core.Page(f.Page, f.Limit)
	args = append(args, limit, offset)
	q := fmt.Sprintf(`
		SELECT id, account_id, name, subject, content, type, status, created_at, updated_at
		FROM email_template WHERE %s
		ORDER BY updated_at DESC
		LIMIT $%d OFFSET $%d`, cond, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, mapErr(err)
	}
	defer rows.Close()

	var out []core.EmailTemplate
	for rows.Next() {
		var t core.EmailTemplate
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Name, &t.Subject, &t.Content,
			&t.Type, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (s *Store) UpdateTemplate(ctx context.Context, t *core.EmailTemplate) error {
	const q = `
		UPDATE email_template
		SET name = $3, subject = $4, content = $5, type = $6, status = $7, updated_at = NOW()
		WHERE id = $1 AND account_id = $2
		RETURNING updated_at`
	err := s.pool.QueryRow(ctx, q,
		t.ID, t.AccountID, t.Name, t.Subject, t.Content, t.Type, t.Status).
		Scan(&t.UpdatedAt)
	return mapErr(err)
}

func (s *Store) DeleteTemplate(ctx context.Context, accountID, id string) error {
	const q = `DELETE FROM email_template WHERE id = $1 AND account_id = $2`
	ct, err := s.pool.Exec(ctx, q, id, accountID)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) TemplateUsage(ctx context.Context, accountID, id string) (int64, error) {
	const q = `SELECT COUNT(*) FROM email_log WHERE template_id = $1 AND account_id = $2`
	var n int64
	if err := s.pool.QueryRow(ctx, q, id, accountID).Scan(&n); err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}
