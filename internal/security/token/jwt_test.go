package token

import (
	"errors"
	"testing"
	"time"
)

func newTestIssuer() *Issuer {
	return NewIssuer("mailjohn-test", "a-secret", "r-secret", 15*time.Minute, time.Hour)
}

func TestIssueVerifyAccess(t *testing.T) {
	t.Parallel()
	iss := newTestIssuer()

	raw, exp, err := iss.IssueAccess("acc-1", "ana@example.com")
	if err != nil {
		t.Fatalf("IssueAccess err: %v", err)
	}
	if time.Until(exp) > 15*time.Minute || time.Until(exp) < 14*time.Minute {
		t.Fatalf("unexpected exp %v", exp)
	}

	c, err := iss.VerifyAccess(raw)
	if err != nil {
		t.Fatalf("VerifyAccess err: %v", err)
	}
	if c.AccountID != "acc-1" || c.Email != "ana@example.com" || c.JTI == "" {
		t.Fatalf("claims = %+v", c)
	}
}

func TestVerify_RejectsCrossUse(t *testing.T) {
	t.Parallel()
	iss := newTestIssuer()

	access, _, err := iss.IssueAccess("acc-1", "a@b.c")
	if err != nil {
		t.Fatal(err)
	}
	refreshRaw, _, _, err := iss.IssueRefresh("acc-1")
	if err != nil {
		t.Fatal(err)
	}

	// Un access no pasa como refresh ni al revés (secretos distintos).
	if _, err := iss.VerifyRefresh(access); err == nil {
		t.Fatalf("access token accepted as refresh")
	}
	if _, err := iss.VerifyAccess(refreshRaw); err == nil {
		t.Fatalf("refresh token accepted as access")
	}
}

func TestVerify_RejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	a := NewIssuer("issuer-a", "s1", "s2", time.Minute, time.Hour)
	b := NewIssuer("issuer-b", "s1", "s2", time.Minute, time.Hour)

	raw, _, err := a.IssueAccess("acc-1", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.VerifyAccess(raw); !errors.Is(err, ErrInvalidIssuer) {
		t.Fatalf("err = %v, want ErrInvalidIssuer", err)
	}
}

func TestVerify_RejectsTampered(t *testing.T) {
	t.Parallel()
	iss := newTestIssuer()

	raw, _, err := iss.IssueAccess("acc-1", "")
	if err != nil {
		t.Fatal(err)
	}
	tampered := raw[:len(raw)-2] + "xx"
	if _, err := iss.VerifyAccess(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}
