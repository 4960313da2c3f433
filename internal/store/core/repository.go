package core

import (
	"context"
	"time"
)

type Repository interface {
	Ping(ctx context.Context) error

	// ------- Cuentas -------
	CreateAccount(ctx context.Context, a *Account) error
	GetAccountByID(ctx context.Context, id string) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	UpdateAccountPassword(ctx context.Context, id, passwordHash string) error

	// ------- API keys -------
	CreateAPIKey(ctx context.Context, k *APIKey) error
	GetAPIKeyByHash(ctx context.Context, keyHash string) (*APIKey, error)
	ListAPIKeys(ctx context.Context, accountID string) ([]APIKey, error)
	RenameAPIKey(ctx context.Context, accountID, id, name string) error
	// RevokeAPIKey devuelve el key_hash de la key revocada para que el
	// caller pueda invalidar caches que indexan por hash.
	RevokeAPIKey(ctx context.Context, accountID, id string) (keyHash string, err error)
	TouchAPIKey(ctx context.Context, id string, at time.Time) error

	// ------- Templates -------
	CreateTemplate(ctx context.Context, t *EmailTemplate) error
	GetTemplate(ctx context.Context, accountID, id string) (*EmailTemplate, error)
	ListTemplates(ctx context.Context, f TemplateFilter) ([]EmailTemplate, int64, error)
	UpdateTemplate(ctx context.Context, t *EmailTemplate) error
	DeleteTemplate(ctx context.Context, accountID, id string) error
	TemplateUsage(ctx context.Context, accountID, id string) (int64, error)

	// ------- Logs de envío -------
	CreateLog(ctx context.Context, l *EmailLog) error
	GetLog(ctx context.Context, accountID, id string) (*EmailLog, error)
	ListLogs(ctx context.Context, f LogFilter) ([]EmailLog, int64, error)
	MarkLogSent(ctx context.Context, id string, at time.Time) error
	MarkLogFailed(ctx context.Context, id string, errMsg string) error

	// ------- SMTP -------
	// UpsertSMTPConfig desactiva cualquier config previa de la cuenta y
	// deja la nueva como única activa, en una misma transacción.
	UpsertSMTPConfig(ctx context.Context, c *SMTPConfig) error
	GetActiveSMTPConfig(ctx context.Context, accountID string) (*SMTPConfig, error)
	DeactivateSMTPConfigs(ctx context.Context, accountID string) error

	// ------- Refresh tokens -------
	CreateRefreshToken(ctx context.Context, t *RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	// RotateRefreshToken marca el viejo como usado y crea el nuevo en una
	// única transacción. Falla con ErrConflict si el viejo ya estaba usado.
	RotateRefreshToken(ctx context.Context, oldID string, next *RefreshToken) error
	PurgeExpiredRefreshTokens(ctx context.Context, accountID string) (int64, error)
	RevokeRefreshTokens(ctx context.Context, accountID string) error
	DeleteRefreshTokenByHash(ctx context.Context, tokenHash string) error

	// ------- Dashboard -------
	Stats(ctx context.Context, accountID string, now time.Time) (*DashboardStats, error)
	RecentLogs(ctx context.Context, accountID string, limit int) ([]EmailLog, error)
	CountByStatus(ctx context.Context, accountID string, since time.Time) ([]StatusCount, error)
	// MonthlyLogCounts agrupa los logs desde `since` por mes calendario,
	// en orden cronológico.
	MonthlyLogCounts(ctx context.Context, accountID string, since time.Time) ([]MonthCount, error)
}
