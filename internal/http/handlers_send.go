package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/dropDatabas3/mailjohn/internal/auth/apikey"
	"github.com/dropDatabas3/mailjohn/internal/email"
	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

// SendHandler es el endpoint público de envío: autentica por api key y
// despacha un template. Es la superficie que consumen los backends de
// los clientes, no el panel.
type SendHandler struct {
	Verifier   *apikey.Verifier
	Dispatcher *email.Dispatcher
}

type sendIn struct {
	To         string            `json:"to"`
	TemplateID string            `json:"templateId"`
	Variables  map[string]string `json:"variables"`
}

// ─────────────── POST /api/email/send ───────────────
//
// Credenciales por headers x-api-key / x-secret-key. Sin keys: 401.
// Keys inválidas: 403. El body usa camelCase porque es la superficie
// pública que consumen SDKs de clientes.

func (h *SendHandler) Send(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("x-api-key")
	secret := r.Header.Get("x-secret-key")
	if key == "" || secret == "" {
		WriteError(w, http.StatusUnauthorized, "missing_credentials", "faltan los headers x-api-key / x-secret-key", 1001)
		return
	}

	var in sendIn
	if !ReadJSON(w, r, &in) {
		return
	}

	ak, err := h.Verifier.Verify(r.Context(), key, secret)
	if err != nil {
		if errors.Is(err, apikey.ErrInvalidCredentials) {
			ObserveAPIKeyAuth("invalid")
			WriteError(w, http.StatusForbidden, "invalid_credentials", "api key o secret inválidos", 1003)
			return
		}
		ObserveAPIKeyAuth("error")
		logger.From(r.Context()).Error("api key verify failed", logger.Err(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "autenticación falló", 1500)
		return
	}
	ObserveAPIKeyAuth("ok")

	entry, err := h.Dispatcher.SendTemplate(r.Context(), email.SendTemplateRequest{
		AccountID:  ak.AccountID,
		TemplateID: in.TemplateID,
		To:         in.To,
		Variables:  in.Variables,
	})
	if err != nil {
		switch {
		case errors.Is(err, email.ErrInvalidInput):
			WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), 1101)
		case errors.Is(err, core.ErrNotFound), errors.Is(err, email.ErrTemplateInactive):
			WriteError(w, http.StatusNotFound, "template_not_found", "template inexistente o no activo", 1404)
		case errors.Is(err, email.ErrNoSMTPConfig):
			WriteError(w, http.StatusConflict, "no_smtp_config", "la cuenta no tiene SMTP configurado", 1302)
		case errors.Is(err, email.ErrSendFailed):
			// El intento quedó registrado como FAILED.
			WriteError(w, http.StatusInternalServerError, "send_failed", err.Error(), 1303)
		default:
			logger.From(r.Context()).Error("send failed", logger.Err(err))
			WriteError(w, http.StatusInternalServerError, "internal_error", "envío falló", 1500)
		}
		return
	}

	ts := time.Now().UTC()
	if entry.SentAt != nil {
		ts = *entry.SentAt
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"messageId": entry.ID,
		"timestamp": ts.Format(time.RFC3339),
	})
}

// APIKeyLimitKey ratelimitea el envío público por api key, no por IP:
// un cliente detrás de un NAT no debe comerse el cupo de otro.
func APIKeyLimitKey(r *http.Request) string {
	if k := r.Header.Get("x-api-key"); k != "" {
		return "send:" + k
	}
	return "send:ip:" + clientIP(r)
}
