package pg

import (
	"context"
	"time"

	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

// Stats arma los números del dashboard. El growth compara el mes en curso
// contra el mes anterior completo.
func (s *Store) Stats(ctx context.Context, accountID string, now time.Time) (*core.DashboardStats, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prevStart := monthStart.AddDate(0, -1, 0)

	var out core.DashboardStats

	const qTotals = `
		SELECT
			COUNT(*) FILTER (WHERE status IN ('SENT','DELIVERED','OPENED')),
			COUNT(*)
		FROM email_log WHERE account_id = $1`
	var ok, total int64
	if err := s.pool.QueryRow(ctx, qTotals, accountID).Scan(&ok, &total); err != nil {
		return nil, mapErr(err)
	}
	out.TotalSent = ok
	if total > 0 {
		out.SuccessRate = float64(ok) / float64(total) * 100
	}

	const qMonth = `
		SELECT
			COUNT(*) FILTER (WHERE created_at >= $2),
			COUNT(*) FILTER (WHERE created_at >= $3 AND created_at < $2)
		FROM email_log WHERE account_id = $1`
	var cur, prev int64
	if err := s.pool.QueryRow(ctx, qMonth, accountID, monthStart, prevStart).Scan(&cur, &prev); err != nil {
		return nil, mapErr(err)
	}
	switch {
	case prev > 0:
		out.SentGrowth = (float64(cur) - float64(prev)) / float64(prev) * 100
	case cur > 0:
		out.SentGrowth = 100
	}

	const qTpl = `SELECT COUNT(*) FROM email_template WHERE account_id = $1 AND status = 'ACTIVE'`
	if err := s.pool.QueryRow(ctx, qTpl, accountID).Scan(&out.ActiveTemplates); err != nil {
		return nil, mapErr(err)
	}

	const qKeys = `SELECT COUNT(*) FROM api_key WHERE account_id = $1 AND status = 'ACTIVE'`
	if err := s.pool.QueryRow(ctx, qKeys, accountID).Scan(&out.ActiveKeys); err != nil {
		return nil, mapErr(err)
	}

	return &out, nil
}

func (s *Store) RecentLogs(ctx context.Context, accountID string, limit int) ([]core.EmailLog, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}
	const q = `
		SELECT id, account_id, template_id, recipient, subject, status, error, sent_at, created_at
		FROM email_log WHERE account_id = $1
		ORDER BY created_at DESC LIMIT $2`
	rows, err := s.pool.Query(ctx, q, accountID, limit)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []core.EmailLog
	for rows.Next() {
		var l core.EmailLog
		if err := rows.Scan(&l.ID, &l.AccountID, &l.TemplateID, &l.Recipient, &l.Subject,
			&l.Status, &l.Error, &l.SentAt, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) MonthlyLogCounts(ctx context.Context, accountID string, since time.Time) ([]core.MonthCount, error) {
	const q = `
		SELECT TO_CHAR(DATE_TRUNC('month', created_at), 'Mon') AS name, COUNT(*)
		FROM email_log
		WHERE account_id = $1 AND created_at >= $2
		GROUP BY DATE_TRUNC('month', created_at)
		ORDER BY DATE_TRUNC('month', created_at)`
	rows, err := s.pool.Query(ctx, q, accountID, since)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []core.MonthCount
	for rows.Next() {
		var m core.MonthCount
		if err := rows.Scan(&m.Name, &m.Total); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) CountByStatus(ctx context.Context, accountID string, since time.Time) ([]core.StatusCount, error) {
	const q = `
		SELECT status, COUNT(*) FROM email_log
		WHERE account_id = $1 AND created_at >= $2
		GROUP BY status ORDER BY status`
	rows, err := s.pool.Query(ctx, q, accountID, since)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []core.StatusCount
	for rows.Next() {
		var c core.StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
