package email

import (
	"net"
	"strings"
)

// Diag clasifica un error SMTP para logs, métricas y respuestas de
// /settings/smtp/test.
type Diag struct {
	Code      string // auth|tls|dial|timeout|rate_limited|invalid_recipient|rejected|network|unknown
	Temporary bool   // si conviene reintentar
}

// Diagnose inspecciona el texto del error SMTP. Los servidores no dan
// errores tipados, así que el matching es por substring de los códigos
// RFC 3463 y los mensajes más comunes.
func Diagnose(err error) Diag {
	if err == nil {
		return Diag{Code: "unknown"}
	}
	s := strings.ToLower(err.Error())

	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return Diag{Code: "timeout", Temporary: true}
	}
	if strings.Contains(s, "timeout") || strings.Contains(s, "i/o timeout") {
		return Diag{Code: "timeout", Temporary: true}
	}

	if strings.Contains(s, "connection refused") ||
		strings.Contains(s, "no such host") ||
		strings.Contains(s, "dial tcp") {
		return Diag{Code: "dial", Temporary: true}
	}

	if strings.Contains(s, "x509:") ||
		(strings.Contains(s, "tls") && (strings.Contains(s, "handshake") || strings.Contains(s, "certificate"))) {
		return Diag{Code: "tls", Temporary: false}
	}

	if strings.Contains(s, "5.7.8") || strings.Contains(s, "535") ||
		strings.Contains(s, "username and password not accepted") ||
		strings.Contains(s, "authentication failed") {
		return Diag{Code: "auth", Temporary: false}
	}

	if strings.Contains(s, "4.7.0") ||
		strings.Contains(s, "rate limit") ||
		strings.Contains(s, "try again later") ||
		strings.Contains(s, "451") || strings.Contains(s, "421") {
		return Diag{Code: "rate_limited", Temporary: true}
	}

	if strings.Contains(s, "5.1.1") || strings.Contains(s, "user unknown") ||
		strings.Contains(s, "mailbox not found") {
		return Diag{Code: "invalid_recipient", Temporary: false}
	}

	if strings.Contains(s, "5.7.1") ||
		strings.Contains(s, "message rejected") ||
		strings.Contains(s, "dmarc") || strings.Contains(s, "spf") {
		return Diag{Code: "rejected", Temporary: false}
	}

	if _, ok := err.(net.Error); ok {
		return Diag{Code: "network", Temporary: true}
	}
	return Diag{Code: "unknown", Temporary: false}
}
