package email

import "fmt"

// ─── Mail de prueba de configuración SMTP ───

const testMailStyles = `
body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #f4f4f7; color: #333; margin: 0; padding: 0; }
.container { width: 100%%; max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.08); }
.header { background: linear-gradient(135deg, #0ea5e9 0%%, #6366f1 100%%); padding: 40px; text-align: center; }
.header h1 { color: #ffffff; margin: 0 0 8px 0; font-size: 28px; font-weight: 700; }
.header .subtitle { color: rgba(255,255,255,0.9); font-size: 14px; }
.content { padding: 40px; line-height: 1.7; }
.success-badge { display: inline-block; background: linear-gradient(135deg, #11998e 0%%, #38ef7d 100%%); color: white; padding: 8px 20px; border-radius: 50px; font-size: 14px; font-weight: 600; margin-bottom: 24px; }
.info-card { background: #f0f9ff; border-left: 4px solid #0ea5e9; padding: 20px; margin: 24px 0; border-radius: 0 8px 8px 0; }
.info-card strong { color: #0ea5e9; }
.footer { background-color: #0f172a; padding: 30px 40px; text-align: center; }
.footer p { color: #8b8b9a; font-size: 12px; margin: 0 0 8px 0; }
.footer .brand { color: #38bdf8; font-weight: 600; font-size: 14px; }
.timestamp { color: #999; font-size: 12px; margin-top: 16px; }
`

// TestContent es el contenido del mail de prueba.
type TestContent struct {
	Subject  string
	HTMLBody string
	TextBody string
}

// TestMailContent arma el mail de prueba para una cuenta.
func TestMailContent(accountName, timestamp string) TestContent {
	if accountName == "" {
		accountName = "tu cuenta"
	}
	return TestContent{
		Subject: fmt.Sprintf("✅ SMTP Configurado - %s", accountName),
		HTMLBody: fmt.Sprintf(`<!doctype html>
<html>
<head>
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<style>%s</style>
</head>
<body>
  <div style="padding: 40px 20px;">
    <div class="container">
      <div class="header">
        <h1>📬 MailJohn</h1>
        <div class="subtitle">Transactional Email Platform</div>
      </div>
      <div class="content">
        <div class="success-badge">✓ Configuración Exitosa</div>
        <h2 style="margin-top: 0; color: #333; font-size: 24px;">¡Tu SMTP está listo!</h2>
        <p>Hola,</p>
        <p>Este es un correo de prueba que confirma que la configuración SMTP de <strong>%s</strong> está funcionando correctamente.</p>

        <div class="info-card">
          <strong>¿Qué significa esto?</strong><br>
          Tu cuenta ya puede despachar emails transaccionales con tus templates y API keys.
        </div>

        <p>Si no solicitaste esta prueba, puedes ignorar este mensaje.</p>

        <p class="timestamp">Enviado: %s</p>
      </div>
      <div class="footer">
        <p class="brand">MailJohn</p>
        <p>Transactional Email Platform</p>
        <p>Este es un mensaje automático de prueba.</p>
      </div>
    </div>
  </div>
</body>
</html>`, testMailStyles, accountName, timestamp),
		TextBody: fmt.Sprintf(`✅ SMTP Configurado - %s

¡Tu SMTP está listo!

Este es un correo de prueba que confirma que la configuración SMTP de %s está funcionando correctamente.

Enviado: %s

--
MailJohn - Transactional Email Platform`, accountName, accountName, timestamp),
	}
}
