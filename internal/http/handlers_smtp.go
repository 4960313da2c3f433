package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/mailjohn/internal/email"
	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
	"github.com/dropDatabas3/mailjohn/internal/security/secretbox"
	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

// SMTPHandler gestiona la configuración SMTP por cuenta.
// La password se cifra con secretbox antes de persistir y nunca vuelve
// al cliente.
type SMTPHandler struct {
	Repo       core.Repository
	Box        *secretbox.Box
	Dispatcher *email.Dispatcher
	Timeout    time.Duration
}

var validTLSModes = map[string]bool{
	"auto": true, "starttls": true, "ssl": true, "none": true,
}

type smtpIn struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	FromName     string `json:"from_name"`
	FromEmail    string `json:"from_email"`
	ReplyToEmail string `json:"reply_to_email"`
	TLSMode      string `json:"tls_mode"`
}

func (in *smtpIn) validate() error {
	in.Host = strings.TrimSpace(in.Host)
	in.FromEmail = strings.TrimSpace(in.FromEmail)
	if in.Host == "" || in.FromEmail == "" {
		return fmt.Errorf("host y from_email son requeridos")
	}
	if in.Port <= 0 || in.Port > 65535 {
		return fmt.Errorf("port inválido: %d", in.Port)
	}
	if in.TLSMode == "" {
		in.TLSMode = "auto"
	}
	if !validTLSModes[in.TLSMode] {
		return fmt.Errorf("tls_mode inválido: %s", in.TLSMode)
	}
	return nil
}

func (in *smtpIn) settings() email.Settings {
	return email.Settings{
		Host:      in.Host,
		Port:      in.Port,
		Username:  in.Username,
		Password:  in.Password,
		FromName:  in.FromName,
		FromEmail: in.FromEmail,
		ReplyTo:   in.ReplyToEmail,
		TLSMode:   in.TLSMode,
	}
}

// ─────────────── GET /api/settings/smtp ───────────────

func (h *SMTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	cfg, err := h.Repo.GetActiveSMTPConfig(r.Context(), claims.AccountID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			WriteJSON(w, http.StatusOK, map[string]any{"configured": false})
			return
		}
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudo leer la configuración", 1500)
		return
	}
	// PasswordEnc tiene json:"-", así que nunca sale por acá.
	WriteJSON(w, http.StatusOK, map[string]any{"configured": true, "config": cfg})
}

// ─────────────── POST /api/settings/smtp ───────────────
//
// Crea o reemplaza: la config nueva queda activa y cualquier otra de la
// cuenta se desactiva en la misma transacción.

func (h *SMTPHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	var in smtpIn
	if !ReadJSON(w, r, &in) {
		return
	}
	if err := in.validate(); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), 1101)
		return
	}

	// Password vacía en el update significa "conservar la actual".
	enc := ""
	if in.Password != "" {
		var err error
		enc, err = h.Box.Encrypt(in.Password)
		if err != nil {
			logger.From(r.Context()).Error("encrypt smtp password failed", logger.Err(err))
			WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudo guardar la configuración", 1500)
			return
		}
	} else {
		prev, err := h.Repo.GetActiveSMTPConfig(r.Context(), claims.AccountID)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_request", "password es requerida en la primera configuración", 1101)
			return
		}
		enc = prev.PasswordEnc
	}

	cfg := &core.SMTPConfig{
		AccountID:    claims.AccountID,
		Host:         in.Host,
		Port:         in.Port,
		Username:     in.Username,
		PasswordEnc:  enc,
		FromName:     in.FromName,
		FromEmail:    in.FromEmail,
		ReplyToEmail: in.ReplyToEmail,
		TLSMode:      in.TLSMode,
	}
	if err := h.Repo.UpsertSMTPConfig(r.Context(), cfg); err != nil {
		logger.From(r.Context()).Error("upsert smtp config failed", logger.Err(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudo guardar la configuración", 1500)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"configured": true, "config": cfg})
}

// ─────────────── DELETE /api/settings/smtp ───────────────

func (h *SMTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	if err := h.Repo.DeactivateSMTPConfigs(r.Context(), claims.AccountID); err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudo desactivar la configuración", 1500)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─────────────── POST /api/settings/smtp/test ───────────────
//
// Con body se prueba esa configuración sin guardarla; sin body (o sin
// host) se prueba la activa de la cuenta.

func (h *SMTPHandler) Test(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	var in smtpIn
	if !ReadJSON(w, r, &in) {
		return
	}

	var override *email.Settings
	if in.Host != "" {
		if err := in.validate(); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), 1101)
			return
		}
		s := in.settings()
		override = &s
	}

	if err := h.Dispatcher.TestConnection(r.Context(), claims.AccountID, override, h.Timeout); err != nil {
		writeSMTPTestError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// ─────────────── POST /api/settings/smtp/send-test ───────────────

func (h *SMTPHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	var in struct {
		To string `json:"to"`
		smtpIn
	}
	if !ReadJSON(w, r, &in) {
		return
	}
	if in.To == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "to es requerido", 1101)
		return
	}

	var override *email.Settings
	if in.Host != "" {
		if err := in.smtpIn.validate(); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), 1101)
			return
		}
		s := in.smtpIn.settings()
		override = &s
	}

	acc, err := h.Repo.GetAccountByID(r.Context(), claims.AccountID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudo resolver la cuenta", 1500)
		return
	}

	if err := h.Dispatcher.SendTest(r.Context(), claims.AccountID, in.To, acc.Name, override, h.Timeout); err != nil {
		writeSMTPTestError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func writeSMTPTestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, email.ErrNoSMTPConfig):
		WriteError(w, http.StatusPreconditionFailed, "no_smtp_config", "la cuenta no tiene SMTP configurado", 1302)
	case errors.Is(err, email.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), 1101)
	case errors.Is(err, email.ErrSendFailed):
		WriteError(w, http.StatusBadGateway, "smtp_error", err.Error(), 1303)
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "prueba SMTP falló", 1500)
	}
}
