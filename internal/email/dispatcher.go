package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

// Dispatcher orquesta un envío: carga template, renderiza, registra el log
// y despacha por SMTP.
//
// El log se crea optimista en SENT antes de hablar con el servidor; si el
// envío falla se pasa a FAILED con el error. Un log nunca sale de un estado
// terminal. Si la cuenta no tiene SMTP configurado no se registra nada:
// el request se rechaza antes de tocar la tabla de logs.
type Dispatcher struct {
	repo     Store
	provider SenderProvider

	// OnDispatch se llama con el resultado de cada envío (para métricas).
	// status: sent|failed. code: diag code del error SMTP, "" si ok.
	OnDispatch func(status, code string)
}

func NewDispatcher(repo Store, provider SenderProvider) *Dispatcher {
	return &Dispatcher{repo: repo, provider: provider}
}

func (d *Dispatcher) emit(status, code string) {
	if d.OnDispatch != nil {
		d.OnDispatch(status, code)
	}
}

// SendTemplate envía un email basado en un template guardado de la cuenta.
// Devuelve el log del envío (SENT o FAILED). Sólo templates ACTIVE son
// enviables.
func (d *Dispatcher) SendTemplate(ctx context.Context, req SendTemplateRequest) (*core.EmailLog, error) {
	if req.AccountID == "" || req.TemplateID == "" {
		return nil, fmt.Errorf("%w: account and template are required", ErrInvalidInput)
	}
	if !validRecipient(req.To) {
		return nil, fmt.Errorf("%w: invalid recipient %q", ErrInvalidInput, req.To)
	}

	// SMTP primero: sin config no se toca la tabla de logs ni se revela
	// si el template existe.
	sender, err := d.provider.GetSender(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	tpl, err := d.repo.GetTemplate(ctx, req.AccountID, req.TemplateID)
	if err != nil {
		return nil, err
	}
	if tpl.Status != core.TemplateStatusActive {
		return nil, ErrTemplateInactive
	}

	subject, content := RenderParts(tpl.Subject, tpl.Content, req.Variables)
	return d.dispatch(ctx, sender, req.AccountID, &tpl.ID, req.To, subject, content)
}

// Send envía un email directo con asunto y cuerpo explícitos (sin template
// persistido). Las variables se sustituyen igual que en un template.
func (d *Dispatcher) Send(ctx context.Context, req SendRequest) (*core.EmailLog, error) {
	if req.AccountID == "" {
		return nil, fmt.Errorf("%w: account is required", ErrInvalidInput)
	}
	if !validRecipient(req.To) {
		return nil, fmt.Errorf("%w: invalid recipient %q", ErrInvalidInput, req.To)
	}
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: subject and content are required", ErrInvalidInput)
	}

	sender, err := d.provider.GetSender(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	subject, content := RenderParts(req.Subject, req.Content, req.Variables)
	return d.dispatch(ctx, sender, req.AccountID, nil, req.To, subject, content)
}

// dispatch registra el log y despacha con un sender ya resuelto. Llega acá
// sólo quien ya pasó por la resolución de config SMTP.
func (d *Dispatcher) dispatch(ctx context.Context, sender Sender, accountID string, templateID *string, to, subject, content string) (*core.EmailLog, error) {
	log := logger.From(ctx).With(
		logger.Component("Dispatcher"),
		logger.AccountID(accountID),
		logger.Recipient(to),
	)

	entry := &core.EmailLog{
		AccountID:  accountID,
		TemplateID: templateID,
		Recipient:  to,
		Subject:    subject,
		Content:    content,
		Status:     core.LogStatusSent,
	}
	if err := d.repo.CreateLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("create log: %w", err)
	}
	log = log.With(logger.LogID(entry.ID))

	if err := sender.Send(to, subject, content, ""); err != nil {
		diag := Diagnose(err)
		msg := err.Error()
		entry.Status = core.LogStatusFailed
		entry.Error = &msg
		if uerr := d.repo.MarkLogFailed(ctx, entry.ID, msg); uerr != nil {
			log.Error("failed to mark log as failed", logger.Err(uerr))
		}
		log.Warn("dispatch failed",
			logger.String("diag", diag.Code),
			logger.Bool("temporary", diag.Temporary),
		)
		d.emit("failed", diag.Code)
		return entry, fmt.Errorf("%w: %s", ErrSendFailed, diag.Code)
	}

	now := time.Now().UTC()
	entry.SentAt = &now
	if uerr := d.repo.MarkLogSent(ctx, entry.ID, now); uerr != nil {
		log.Error("failed to stamp sent_at", logger.Err(uerr))
	}
	log.Info("dispatch ok")
	d.emit("sent", "")
	return entry, nil
}

// SendTest manda el mail de prueba de configuración. Con override se prueba
// una config todavía no guardada; sin override, la activa de la cuenta.
// No registra log: es una prueba de plomería, no tráfico del cliente.
func (d *Dispatcher) SendTest(ctx context.Context, accountID, to, accountName string, override *Settings, timeout time.Duration) error {
	if !validRecipient(to) {
		return fmt.Errorf("%w: invalid recipient %q", ErrInvalidInput, to)
	}

	var sender Sender
	var err error
	if override != nil {
		sender = NewSMTPSender(*override, timeout)
	} else {
		sender, err = d.provider.GetSender(ctx, accountID)
		if err != nil {
			return err
		}
	}

	c := TestMailContent(accountName, time.Now().UTC().Format(time.RFC1123))
	if err := sender.Send(to, c.Subject, c.HTMLBody, c.TextBody); err != nil {
		diag := Diagnose(err)
		return fmt.Errorf("%w: %s", ErrSendFailed, diag.Code)
	}
	return nil
}

// TestConnection valida host/credenciales sin enviar nada.
func (d *Dispatcher) TestConnection(ctx context.Context, accountID string, override *Settings, timeout time.Duration) error {
	var sender Sender
	var err error
	if override != nil {
		sender = NewSMTPSender(*override, timeout)
	} else {
		sender, err = d.provider.GetSender(ctx, accountID)
		if err != nil {
			return err
		}
	}
	s, ok := sender.(*SMTPSender)
	if !ok {
		return nil
	}
	if err := s.Ping(); err != nil {
		diag := Diagnose(err)
		return fmt.Errorf("%w: %s", ErrSendFailed, diag.Code)
	}
	return nil
}

// validRecipient hace el chequeo mínimo "local@dominio". La validación en
// serio la hace el servidor SMTP del destinatario.
func validRecipient(to string) bool {
	to = strings.TrimSpace(to)
	at := strings.Index(to, "@")
	if at < 1 || at == len(to)-1 {
		return false
	}
	return !strings.ContainsAny(to, " \t\r\n")
}
