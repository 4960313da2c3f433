package email

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
	"github.com/dropDatabas3/mailjohn/internal/security/secretbox"
	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

// senderProvider resuelve la config SMTP activa de la cuenta y descifra
// la password antes de armar el Sender.
type senderProvider struct {
	repo    ConfigStore
	box     *secretbox.Box
	timeout time.Duration
	// Sólo dev: propagado a los senders que arma.
	insecureSkipVerify bool
}

func NewSenderProvider(repo ConfigStore, box *secretbox.Box, timeout time.Duration, insecureSkipVerify bool) SenderProvider {
	return &senderProvider{
		repo:               repo,
		box:                box,
		timeout:            timeout,
		insecureSkipVerify: insecureSkipVerify,
	}
}

func (p *senderProvider) GetSender(ctx context.Context, accountID string) (Sender, error) {
	log := logger.From(ctx).With(
		logger.Component("SenderProvider"),
		logger.AccountID(accountID),
	)

	cfg, err := p.repo.GetActiveSMTPConfig(ctx, accountID)
	if err != nil {
		if err == core.ErrNotFound {
			log.Warn("no SMTP settings for account")
			return nil, ErrNoSMTPConfig
		}
		return nil, fmt.Errorf("load smtp config: %w", err)
	}

	password := ""
	if cfg.PasswordEnc != "" {
		password, err = p.box.Decrypt(cfg.PasswordEnc)
		if err != nil {
			log.Error("failed to decrypt SMTP password", logger.Err(err))
			return nil, fmt.Errorf("decrypt smtp password: %w", err)
		}
	}

	sender := NewSMTPSender(Settings{
		Host:      cfg.Host,
		Port:      cfg.Port,
		Username:  cfg.Username,
		Password:  password,
		FromName:  cfg.FromName,
		FromEmail: cfg.FromEmail,
		ReplyTo:   cfg.ReplyToEmail,
		TLSMode:   cfg.TLSMode,
	}, p.timeout)
	sender.InsecureSkipVerify = p.insecureSkipVerify

	log.Debug("sender created",
		logger.String("host", cfg.Host),
		logger.Int("port", cfg.Port),
	)

	return sender, nil
}
