package http

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricsOnce sync.Once

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	emailDispatchTotal *prometheus.CounterVec
	apiKeyAuthTotal    *prometheus.CounterVec
)

// RegisterMetrics registra las métricas del servicio y devuelve el handler
// para /metrics. Idempotente.
func RegisterMetrics(reg prometheus.Registerer) http.Handler {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	metricsOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		emailDispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "email_dispatch_total",
			Help: "Envíos de email por resultado y diagnóstico SMTP",
		}, []string{"status", "diag"}) // status: sent|failed

		apiKeyAuthTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_key_auth_total",
			Help: "Verificaciones de API key por resultado",
		}, []string{"result"}) // result: ok|invalid|error

		reg.MustRegister(httpRequestsTotal, httpRequestDuration, emailDispatchTotal, apiKeyAuthTotal)
	})

	return promhttp.Handler()
}

// ObserveRequest alimenta las métricas HTTP. No-op si /metrics no se registró.
func ObserveRequest(method, path string, status int, dur time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(dur.Seconds())
}

// ObserveDispatch registra el resultado de un envío (hook del Dispatcher).
func ObserveDispatch(status, diag string) {
	if emailDispatchTotal == nil {
		return
	}
	if diag == "" {
		diag = "none"
	}
	emailDispatchTotal.WithLabelValues(status, diag).Inc()
}

// ObserveAPIKeyAuth registra el resultado de una verificación de API key.
func ObserveAPIKeyAuth(result string) {
	if apiKeyAuthTotal == nil {
		return
	}
	apiKeyAuthTotal.WithLabelValues(result).Inc()
}
