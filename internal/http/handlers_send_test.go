package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/mailjohn/internal/auth/apikey"
	"github.com/dropDatabas3/mailjohn/internal/email"
	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

// ─── Fakes ───

type fakeKeyStore struct {
	keys    map[string]*core.APIKey // por key_hash
	touched []string
}

func (f *fakeKeyStore) GetAPIKeyByHash(_ context.Context, keyHash string) (*core.APIKey, error) {
	k, ok := f.keys[keyHash]
	if !ok {
		return nil, core.ErrNotFound
	}
	return k, nil
}

func (f *fakeKeyStore) TouchAPIKey(_ context.Context, id string, _ time.Time) error {
	f.touched = append(f.touched, id)
	return nil
}

type fakeMailStore struct {
	templates map[string]*core.EmailTemplate
	logs      []*core.EmailLog
}

func (f *fakeMailStore) GetTemplate(_ context.Context, accountID, id string) (*core.EmailTemplate, error) {
	t, ok := f.templates[id]
	if !ok || t.AccountID != accountID {
		return nil, core.ErrNotFound
	}
	return t, nil
}

func (f *fakeMailStore) CreateLog(_ context.Context, l *core.EmailLog) error {
	if l.ID == "" {
		l.ID = "log-1"
	}
	f.logs = append(f.logs, l)
	return nil
}

func (f *fakeMailStore) MarkLogSent(context.Context, string, time.Time) error { return nil }
func (f *fakeMailStore) MarkLogFailed(context.Context, string, string) error  { return nil }

type okSender struct{ err error }

func (s *okSender) Send(string, string, string, string) error { return s.err }

type staticProvider struct {
	sender email.Sender
	err    error
}

func (p *staticProvider) GetSender(context.Context, string) (email.Sender, error) {
	return p.sender, p.err
}

// ─── Setup ───

func newSendHandler(t *testing.T, senderErr error) (*SendHandler, apikey.Pair, *fakeMailStore) {
	t.Helper()

	pair, err := apikey.NewPair(true)
	require.NoError(t, err)

	ks := &fakeKeyStore{keys: map[string]*core.APIKey{
		apikey.HashKey(pair.Key): {
			ID:         "key-1",
			AccountID:  "acc-1",
			Name:       "backend",
			SecretHash: apikey.HashSecret(pair.Secret),
			Status:     core.APIKeyStatusActive,
		},
	}}

	ms := &fakeMailStore{templates: map[string]*core.EmailTemplate{
		"tpl-1": {
			ID:        "tpl-1",
			AccountID: "acc-1",
			Subject:   "Hola {{name}}",
			Content:   "<p>Hola {{name}}</p>",
			Status:    core.TemplateStatusActive,
		},
	}}

	h := &SendHandler{
		Verifier:   apikey.NewVerifier(ks, nil),
		Dispatcher: email.NewDispatcher(ms, &staticProvider{sender: &okSender{err: senderErr}}),
	}
	return h, pair, ms
}

func postSend(h *SendHandler, headers map[string]string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/email/send", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.Send(rec, req)
	return rec
}

func credHeaders(pair apikey.Pair) map[string]string {
	return map[string]string{"x-api-key": pair.Key, "x-secret-key": pair.Secret}
}

// ─── Tests ───

func TestSendEndpoint_Success(t *testing.T) {
	h, pair, ms := newSendHandler(t, nil)

	rec := postSend(h, credHeaders(pair), map[string]any{
		"to":         "ana@example.com",
		"templateId": "tpl-1",
		"variables":  map[string]string{"name": "Ana"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Success   bool   `json:"success"`
		MessageID string `json:"messageId"`
		Timestamp string `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.True(t, out.Success)
	require.NotEmpty(t, out.MessageID)
	_, err := time.Parse(time.RFC3339, out.Timestamp)
	require.NoError(t, err)

	require.Len(t, ms.logs, 1)
	require.Equal(t, "Hola Ana", ms.logs[0].Subject)
}

func TestSendEndpoint_MissingCredentialsIs401(t *testing.T) {
	h, pair, _ := newSendHandler(t, nil)

	rec := postSend(h, map[string]string{"x-api-key": pair.Key}, map[string]any{
		"to": "ana@example.com", "templateId": "tpl-1",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendEndpoint_BadCredentialsIs403(t *testing.T) {
	h, pair, ms := newSendHandler(t, nil)

	rec := postSend(h, map[string]string{
		"x-api-key":    pair.Key,
		"x-secret-key": "no-es-el-secret",
	}, map[string]any{"to": "ana@example.com", "templateId": "tpl-1"})

	require.Equal(t, http.StatusForbidden, rec.Code)
	var out struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "invalid_credentials", out.Error)
	require.Empty(t, ms.logs, "un request no autenticado no debe registrar nada")
}

func TestSendEndpoint_RevokedKeyIs403(t *testing.T) {
	h, pair, _ := newSendHandler(t, nil)

	revoked := &fakeKeyStore{keys: map[string]*core.APIKey{
		apikey.HashKey(pair.Key): {
			ID:         "key-1",
			AccountID:  "acc-1",
			SecretHash: apikey.HashSecret(pair.Secret),
			Status:     core.APIKeyStatusInactive,
		},
	}}
	h.Verifier = apikey.NewVerifier(revoked, nil)

	rec := postSend(h, credHeaders(pair), map[string]any{"to": "a@b.c", "templateId": "tpl-1"})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSendEndpoint_UnknownTemplateIs404(t *testing.T) {
	h, pair, _ := newSendHandler(t, nil)

	rec := postSend(h, credHeaders(pair), map[string]any{
		"to": "ana@example.com", "templateId": "no-existe",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendEndpoint_InvalidRecipientIs400(t *testing.T) {
	h, pair, _ := newSendHandler(t, nil)

	rec := postSend(h, credHeaders(pair), map[string]any{
		"to": "sin-arroba", "templateId": "tpl-1",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendEndpoint_NoSMTPConfigIs409(t *testing.T) {
	h, pair, ms := newSendHandler(t, nil)
	h.Dispatcher = email.NewDispatcher(ms, &staticProvider{err: email.ErrNoSMTPConfig})

	rec := postSend(h, credHeaders(pair), map[string]any{
		"to": "ana@example.com", "templateId": "tpl-1",
	})

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Empty(t, ms.logs, "sin SMTP configurado no debe quedar log")
}

func TestSendEndpoint_SMTPFailureIs500WithLog(t *testing.T) {
	h, pair, ms := newSendHandler(t, &timeoutErr{})

	rec := postSend(h, credHeaders(pair), map[string]any{
		"to": "ana@example.com", "templateId": "tpl-1",
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var out struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "send_failed", out.Error)
	require.Len(t, ms.logs, 1, "el intento fallido queda registrado")
}

type timeoutErr struct{}

func (*timeoutErr) Error() string   { return "dial tcp: i/o timeout" }
func (*timeoutErr) Timeout() bool   { return true }
func (*timeoutErr) Temporary() bool { return true }
