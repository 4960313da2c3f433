package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

// ─── Fakes ───

type fakeStore struct {
	templates map[string]*core.EmailTemplate
	logs      []*core.EmailLog
	sentIDs   []string
	failedIDs []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{templates: map[string]*core.EmailTemplate{}}
}

func (f *fakeStore) GetTemplate(_ context.Context, accountID, id string) (*core.EmailTemplate, error) {
	t, ok := f.templates[id]
	if !ok || t.AccountID != accountID {
		return nil, core.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) CreateLog(_ context.Context, l *core.EmailLog) error {
	if l.ID == "" {
		l.ID = "log-1"
	}
	l.CreatedAt = time.Now()
	cp := *l
	f.logs = append(f.logs, &cp)
	return nil
}

func (f *fakeStore) MarkLogSent(_ context.Context, id string, at time.Time) error {
	f.sentIDs = append(f.sentIDs, id)
	return nil
}

func (f *fakeStore) MarkLogFailed(_ context.Context, id string, errMsg string) error {
	f.failedIDs = append(f.failedIDs, id)
	return nil
}

type fakeSender struct {
	err   error
	calls int
	last  struct{ to, subject, html string }
}

func (f *fakeSender) Send(to, subject, htmlBody, textBody string) error {
	f.calls++
	f.last.to, f.last.subject, f.last.html = to, subject, htmlBody
	return f.err
}

type fakeProvider struct {
	sender Sender
	err    error
}

func (f *fakeProvider) GetSender(context.Context, string) (Sender, error) {
	return f.sender, f.err
}

func activeTemplate() *core.EmailTemplate {
	return &core.EmailTemplate{
		ID:        "tpl-1",
		AccountID: "acc-1",
		Name:      "welcome",
		Subject:   "Hola {{name}}",
		Content:   "<p>Bienvenido {{name}}</p>",
		Type:      core.TemplateTypeTransactional,
		Status:    core.TemplateStatusActive,
	}
}

// ─── Tests ───

func TestSendTemplate_Success(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.templates["tpl-1"] = activeTemplate()
	sender := &fakeSender{}
	d := NewDispatcher(store, &fakeProvider{sender: sender})

	var gotStatus string
	d.OnDispatch = func(status, code string) { gotStatus = status }

	log, err := d.SendTemplate(context.Background(), SendTemplateRequest{
		AccountID:  "acc-1",
		TemplateID: "tpl-1",
		To:         "ana@example.com",
		Variables:  map[string]string{"name": "Ana"},
	})
	if err != nil {
		t.Fatalf("SendTemplate err: %v", err)
	}
	if log.Status != core.LogStatusSent {
		t.Fatalf("status = %q, want SENT", log.Status)
	}
	if log.SentAt == nil {
		t.Fatalf("sent_at not stamped")
	}
	if sender.calls != 1 {
		t.Fatalf("sender calls = %d", sender.calls)
	}
	if sender.last.subject != "Hola Ana" {
		t.Fatalf("subject = %q", sender.last.subject)
	}
	if len(store.sentIDs) != 1 || len(store.failedIDs) != 0 {
		t.Fatalf("terminal marks: sent=%v failed=%v", store.sentIDs, store.failedIDs)
	}
	if gotStatus != "sent" {
		t.Fatalf("metric status = %q", gotStatus)
	}
}

func TestSendTemplate_SMTPFailureMarksFailed(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.templates["tpl-1"] = activeTemplate()
	sender := &fakeSender{err: errors.New("535 authentication failed")}
	d := NewDispatcher(store, &fakeProvider{sender: sender})

	var gotCode string
	d.OnDispatch = func(status, code string) { gotCode = code }

	log, err := d.SendTemplate(context.Background(), SendTemplateRequest{
		AccountID:  "acc-1",
		TemplateID: "tpl-1",
		To:         "ana@example.com",
	})
	if !errors.Is(err, ErrSendFailed) {
		t.Fatalf("err = %v, want ErrSendFailed", err)
	}
	if log == nil || log.Status != core.LogStatusFailed {
		t.Fatalf("log = %+v, want FAILED", log)
	}
	if log.Error == nil || *log.Error == "" {
		t.Fatalf("error message not recorded")
	}
	if len(store.logs) != 1 || len(store.failedIDs) != 1 {
		t.Fatalf("expected single log marked failed")
	}
	if gotCode != "auth" {
		t.Fatalf("diag code = %q, want auth", gotCode)
	}
}

func TestSendTemplate_NoSMTPConfigCreatesNoLog(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.templates["tpl-1"] = activeTemplate()
	d := NewDispatcher(store, &fakeProvider{err: ErrNoSMTPConfig})

	_, err := d.SendTemplate(context.Background(), SendTemplateRequest{
		AccountID:  "acc-1",
		TemplateID: "tpl-1",
		To:         "ana@example.com",
	})
	if !errors.Is(err, ErrNoSMTPConfig) {
		t.Fatalf("err = %v, want ErrNoSMTPConfig", err)
	}
	if len(store.logs) != 0 {
		t.Fatalf("expected zero logs, got %d", len(store.logs))
	}
}

func TestSendTemplate_RejectsInactiveTemplate(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	tpl := activeTemplate()
	tpl.Status = core.TemplateStatusDraft
	store.templates["tpl-1"] = tpl
	d := NewDispatcher(store, &fakeProvider{sender: &fakeSender{}})

	_, err := d.SendTemplate(context.Background(), SendTemplateRequest{
		AccountID:  "acc-1",
		TemplateID: "tpl-1",
		To:         "ana@example.com",
	})
	if !errors.Is(err, ErrTemplateInactive) {
		t.Fatalf("err = %v, want ErrTemplateInactive", err)
	}
	if len(store.logs) != 0 {
		t.Fatalf("no log expected for rejected send")
	}
}

func TestSendTemplate_WrongAccountIsNotFound(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.templates["tpl-1"] = activeTemplate()
	d := NewDispatcher(store, &fakeProvider{sender: &fakeSender{}})

	_, err := d.SendTemplate(context.Background(), SendTemplateRequest{
		AccountID:  "other-account",
		TemplateID: "tpl-1",
		To:         "ana@example.com",
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSendTemplate_InvalidRecipient(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(newFakeStore(), &fakeProvider{sender: &fakeSender{}})
	for _, to := range []string{"", "no-at-sign", "@dom", "user@", "a b@c.d"} {
		_, err := d.SendTemplate(context.Background(), SendTemplateRequest{
			AccountID:  "acc-1",
			TemplateID: "tpl-1",
			To:         to,
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("to=%q err = %v, want ErrInvalidInput", to, err)
		}
	}
}

func TestSend_DirectWithoutTemplate(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	sender := &fakeSender{}
	d := NewDispatcher(store, &fakeProvider{sender: sender})

	log, err := d.Send(context.Background(), SendRequest{
		AccountID: "acc-1",
		To:        "bo@example.com",
		Subject:   "Aviso {{n}}",
		Content:   "cuerpo {{n}}",
		Variables: map[string]string{"n": "7"},
	})
	if err != nil {
		t.Fatalf("Send err: %v", err)
	}
	if log.TemplateID != nil {
		t.Fatalf("template_id should be nil for direct send")
	}
	if sender.last.subject != "Aviso 7" {
		t.Fatalf("subject = %q", sender.last.subject)
	}
}
