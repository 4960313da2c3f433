package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/mailjohn/internal/rate"
	"github.com/dropDatabas3/mailjohn/internal/security/token"
	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

// RouterDeps junta todo lo que el router necesita. El wiring real vive en
// cmd/mailjohn; acá sólo se decide qué middleware envuelve qué ruta.
type RouterDeps struct {
	Repo   core.Repository
	Issuer *token.Issuer

	Auth      *AuthHandler
	APIKeys   *APIKeyHandler
	Templates *TemplateHandler
	SMTP      *SMTPHandler
	Logs      *LogHandler
	Dashboard *DashboardHandler
	Send      *SendHandler

	// Limiters opcionales; nil desactiva el rate limit de ese grupo.
	SendLimiter rate.Limiter
	AuthLimiter rate.Limiter

	CORSAllowedOrigins []string
}

// NewRouter arma el árbol de rutas completo.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(WithRequestID, WithRecover, WithLogging, WithSecurityHeaders)
	if len(d.CORSAllowedOrigins) > 0 {
		r.Use(WithCORS(d.CORSAllowedOrigins))
	}

	// Health
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if err := d.Repo.Ping(req.Context()); err != nil {
			WriteError(w, http.StatusServiceUnavailable, "not_ready", "storage no disponible", 1503)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// ─── API pública: envío por api key ───
	r.Group(func(r chi.Router) {
		r.Use(WithRateLimit(d.SendLimiter, APIKeyLimitKey))
		r.Post("/api/email/send", d.Send.Send)
	})

	// ─── Auth: signup / login / refresh ───
	r.Group(func(r chi.Router) {
		r.Use(WithRateLimit(d.AuthLimiter, IPPathKey))
		r.Post("/api/auth/signup", d.Auth.Signup)
		r.Post("/api/auth/login", d.Auth.Login)
		r.Post("/api/auth/refresh", d.Auth.Refresh)
	})
	// Logout no se ratelimitea y tolera token ausente (borra cookie igual).
	r.Post("/api/auth/logout", d.Auth.Logout)

	// ─── Panel: requiere access token ───
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(d.Issuer))

		r.Get("/api/auth/user", d.Auth.Me)
		r.Put("/api/auth/user/password", d.Auth.ChangePassword)

		r.Route("/api/api-keys", func(r chi.Router) {
			r.Get("/", d.APIKeys.List)
			r.Post("/", d.APIKeys.Create)
			r.Put("/{id}", d.APIKeys.Rename)
			r.Delete("/{id}", d.APIKeys.Revoke)
		})

		r.Route("/api/templates", func(r chi.Router) {
			r.Get("/", d.Templates.List)
			r.Post("/", d.Templates.Create)
			r.Get("/{id}", d.Templates.Get)
			r.Put("/{id}", d.Templates.Update)
			r.Delete("/{id}", d.Templates.Delete)
			r.Post("/{id}/duplicate", d.Templates.Duplicate)
			r.Post("/{id}/send-test", d.Templates.SendTest)
		})

		r.Route("/api/settings/smtp", func(r chi.Router) {
			r.Get("/", d.SMTP.Get)
			r.Post("/", d.SMTP.Upsert)
			r.Delete("/", d.SMTP.Delete)
			r.Post("/test", d.SMTP.Test)
			r.Post("/send-test", d.SMTP.SendTest)
		})

		r.Route("/api/logs", func(r chi.Router) {
			r.Get("/", d.Logs.List)
			r.Get("/export", d.Logs.Export)
			r.Post("/export", d.Logs.Export)
			r.Get("/{id}", d.Logs.Get)
		})

		r.Route("/api/dashboard", func(r chi.Router) {
			r.Get("/stats", d.Dashboard.Stats)
			r.Get("/activity", d.Dashboard.Activity)
			r.Get("/analytics", d.Dashboard.Analytics)
		})
	})

	return r
}
