package email

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

// ─── Errors ───

var (
	ErrNoSMTPConfig     = errors.New("email: no SMTP configuration for account")
	ErrTemplateRender   = errors.New("email: template render failed")
	ErrSendFailed       = errors.New("email: send failed")
	ErrInvalidInput     = errors.New("email: invalid input")
	ErrTemplateInactive = errors.New("email: template is not active")
)

// Store es lo que el dispatcher necesita de la capa de persistencia.
// *pg.Store la satisface; los tests usan fakes chicos.
type Store interface {
	GetTemplate(ctx context.Context, accountID, id string) (*core.EmailTemplate, error)
	CreateLog(ctx context.Context, l *core.EmailLog) error
	MarkLogSent(ctx context.Context, id string, at time.Time) error
	MarkLogFailed(ctx context.Context, id string, errMsg string) error
}

// ConfigStore resuelve la configuración SMTP activa de una cuenta.
type ConfigStore interface {
	GetActiveSMTPConfig(ctx context.Context, accountID string) (*core.SMTPConfig, error)
}

// Sender es la interfaz para enviar emails.
// Implementada por SMTPSender.
type Sender interface {
	// Send envía un email con contenido HTML y texto plano.
	// El destinatario recibe ambas versiones como multipart/alternative.
	Send(to, subject, htmlBody, textBody string) error
}

// SenderProvider resuelve un Sender configurado para una cuenta,
// descifrando la password SMTP persistida.
type SenderProvider interface {
	GetSender(ctx context.Context, accountID string) (Sender, error)
}

// Settings es la configuración SMTP ya descifrada, lista para conectar.
type Settings struct {
	Host      string
	Port      int
	Username  string
	Password  string // plain, ya descifrada
	FromName  string
	FromEmail string
	ReplyTo   string
	TLSMode   string // "auto" | "starttls" | "ssl" | "none"
}

// SendRequest describe un envío directo (sin template persistido).
type SendRequest struct {
	AccountID string
	To        string
	Subject   string
	Content   string
	Variables map[string]string
}

// SendTemplateRequest describe un envío basado en un template guardado.
type SendTemplateRequest struct {
	AccountID  string
	TemplateID string
	To         string
	Variables  map[string]string
}
