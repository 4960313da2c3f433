package email

import (
	"errors"
	"testing"
)

func TestDiagnose(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err       string
		code      string
		temporary bool
	}{
		{"535 5.7.8 username and password not accepted", "auth", false},
		{"dial tcp 10.0.0.1:587: connection refused", "dial", true},
		{"read tcp: i/o timeout", "timeout", true},
		{"x509: certificate signed by unknown authority", "tls", false},
		{"tls handshake failure", "tls", false},
		{"421 4.7.0 try again later", "rate_limited", true},
		{"550 5.1.1 user unknown", "invalid_recipient", false},
		{"554 5.7.1 message rejected due to dmarc policy", "rejected", false},
		{"algo totalmente inesperado", "unknown", false},
	}
	for _, c := range cases {
		d := Diagnose(errors.New(c.err))
		if d.Code != c.code {
			t.Errorf("Diagnose(%q).Code = %q, want %q", c.err, d.Code, c.code)
		}
		if d.Temporary != c.temporary {
			t.Errorf("Diagnose(%q).Temporary = %v, want %v", c.err, d.Temporary, c.temporary)
		}
	}
}

func TestDiagnose_NilError(t *testing.T) {
	t.Parallel()
	if d := Diagnose(nil); d.Code != "unknown" {
		t.Fatalf("code = %q", d.Code)
	}
}
