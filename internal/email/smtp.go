package email

import (
	"crypto/tls"
	"fmt"
	"time"

	mail "github.com/go-mail/mail"

	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
)

// SMTPSender implementa Sender usando SMTP.
type SMTPSender struct {
	Host               string
	Port               int
	From               string // "Nombre <addr>" o addr pelada
	ReplyTo            string
	User               string
	Pass               string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// NewSMTPSender arma un sender desde settings ya descifradas.
func NewSMTPSender(s Settings, timeout time.Duration) *SMTPSender {
	from := s.FromEmail
	if s.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.FromName, s.FromEmail)
	}
	mode := s.TLSMode
	if mode == "" {
		mode = "auto"
	}
	return &SMTPSender{
		Host:    s.Host,
		Port:    s.Port,
		From:    from,
		ReplyTo: s.ReplyTo,
		User:    s.Username,
		Pass:    s.Password,
		TLSMode: mode,
		Timeout: timeout,
	}
}

// Send envía un email con contenido HTML y texto plano.
func (s *SMTPSender) Send(to, subject, htmlBody, textBody string) error {
	log := logger.L().With(
		logger.Component("SMTPSender"),
		logger.String("host", s.Host),
		logger.Int("port", s.Port),
		logger.Recipient(to),
	)

	log.Debug("sending email",
		logger.String("from", s.From),
		logger.String("subject", subject),
		logger.String("tls_mode", s.TLSMode),
	)

	m := mail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	if s.ReplyTo != "" {
		m.SetHeader("Reply-To", s.ReplyTo)
	}

	// Preferimos multipart/alternative (txt + html)
	if textBody != "" {
		m.SetBody("text/plain", textBody)
	}
	if htmlBody != "" {
		if textBody == "" {
			m.SetBody("text/html", htmlBody)
		} else {
			m.AddAlternative("text/html", htmlBody)
		}
	}

	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	if s.Timeout > 0 {
		d.Timeout = s.Timeout
	}
	d.TLSConfig = &tls.Config{
		ServerName:         s.Host,
		InsecureSkipVerify: s.InsecureSkipVerify, // solo dev
	}

	switch s.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = &tls.Config{InsecureSkipVerify: s.InsecureSkipVerify}
	default:
		// "auto"/"starttls": go-mail negocia STARTTLS si corresponde
	}

	if err := d.DialAndSend(m); err != nil {
		log.Error("smtp send failed", logger.Err(err))
		return fmt.Errorf("smtp send: %w", err)
	}

	log.Info("email sent successfully")
	return nil
}

// Ping abre y cierra una conexión autenticada, sin enviar mensaje.
func (s *SMTPSender) Ping() error {
	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	if s.Timeout > 0 {
		d.Timeout = s.Timeout
	}
	d.TLSConfig = &tls.Config{
		ServerName:         s.Host,
		InsecureSkipVerify: s.InsecureSkipVerify,
	}
	if s.TLSMode == "ssl" {
		d.SSL = true
	}
	sc, err := d.Dial()
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	return sc.Close()
}
