package core

import "time"

// ────────────────────────── Cuentas ──────────────────────────

type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ────────────────────────── API keys ──────────────────────────

const (
	APIKeyStatusActive   = "ACTIVE"
	APIKeyStatusInactive = "INACTIVE"
)

type APIKey struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	// Prefijo visible de la key (sk_live_ / sk_test_ + primeros chars).
	KeyPrefix string `json:"key_prefix"`
	// Hash SHA-256 de la key completa. La key en claro no se persiste.
	KeyHash string `json:"-"`
	// Hash SHA-256 del secret asociado.
	SecretHash string     `json:"-"`
	Status     string     `json:"status"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// ────────────────────────── Templates ──────────────────────────

const (
	TemplateStatusDraft    = "DRAFT"
	TemplateStatusActive   = "ACTIVE"
	TemplateStatusArchived = "ARCHIVED"
)

const (
	TemplateTypeTransactional = "TRANSACTIONAL"
	TemplateTypeMarketing     = "MARKETING"
	TemplateTypeNotification  = "NOTIFICATION"
)

type EmailTemplate struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TemplateFilter struct {
	AccountID string
	// Busca por substring en nombre o asunto (case-insensitive).
	Search string
	Type   string
	Status string
	Page   int
	Limit  int
}

// ────────────────────────── Logs de envío ──────────────────────────

const (
	LogStatusSent      = "SENT"
	LogStatusFailed    = "FAILED"
	LogStatusDelivered = "DELIVERED"
	LogStatusOpened    = "OPENED"
)

type EmailLog struct {
	ID         string     `json:"id"`
	AccountID  string     `json:"account_id"`
	TemplateID *string    `json:"template_id,omitempty"`
	Recipient  string     `json:"recipient"`
	Subject    string     `json:"subject"`
	Content    string     `json:"content,omitempty"`
	Status     string     `json:"status"`
	Error      *string    `json:"error,omitempty"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type LogFilter struct {
	AccountID  string
	TemplateID string
	Status     string
	Search     string // substring sobre recipient o subject
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

// ────────────────────────── SMTP por cuenta ──────────────────────────

type SMTPConfig struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Username  string `json:"username"`
	// Cifrado en reposo (AES-GCM). Nunca se devuelve al cliente.
	PasswordEnc  string    `json:"-"`
	FromName     string    `json:"from_name"`
	FromEmail    string    `json:"from_email"`
	ReplyToEmail string    `json:"reply_to_email,omitempty"`
	TLSMode      string    `json:"tls_mode"` // auto|starttls|ssl|none
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ────────────────────────── Refresh tokens ──────────────────────────

type RefreshToken struct {
	ID        string
	AccountID string
	TokenHash string
	Used      bool
	UsedAt    *time.Time
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ────────────────────────── Dashboard ──────────────────────────

type DashboardStats struct {
	TotalSent       int64   `json:"total_sent"`
	SentGrowth      float64 `json:"sent_growth"`
	SuccessRate     float64 `json:"success_rate"`
	ActiveTemplates int64   `json:"active_templates"`
	ActiveKeys      int64   `json:"active_keys"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// MonthCount es un punto de la serie mensual del dashboard: abreviatura
// del mes ("Jan", "Feb", ...) y cantidad de correos.
type MonthCount struct {
	Name  string `json:"name"`
	Total int64  `json:"total"`
}

// Page normaliza paginación (1-based, límite acotado).
func Page(page, limit int) (offset, lim int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return (page - 1) * limit, limit
}
