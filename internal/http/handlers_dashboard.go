package http

import (
	"net/http"
	"time"

	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

// DashboardHandler arma los números de la home del panel.
type DashboardHandler struct {
	Repo core.Repository
}

// ─────────────── GET /api/dashboard/stats ───────────────

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	stats, err := h.Repo.Stats(r.Context(), claims.AccountID, time.Now().UTC())
	if err != nil {
		logger.From(r.Context()).Error("dashboard stats failed", logger.Err(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudieron calcular las estadísticas", 1500)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// ─────────────── GET /api/dashboard/activity ───────────────
//
// Últimos envíos + conteo por estado de los últimos 30 días.

func (h *DashboardHandler) Activity(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())

	limit := queryInt(r, "limit", 10)
	if limit < 1 || limit > 50 {
		limit = 10
	}
	recent, err := h.Repo.RecentLogs(r.Context(), claims.AccountID, limit)
	if err != nil {
		logger.From(r.Context()).Error("recent logs failed", logger.Err(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudo leer la actividad", 1500)
		return
	}
	for i := range recent {
		recent[i].Content = ""
	}

	since := time.Now().UTC().AddDate(0, 0, -30)
	byStatus, err := h.Repo.CountByStatus(r.Context(), claims.AccountID, since)
	if err != nil {
		logger.From(r.Context()).Error("count by status failed", logger.Err(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudo leer la actividad", 1500)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"recent":    recent,
		"by_status": byStatus,
		"since":     since,
	})
}

// ─────────────── GET /api/dashboard/analytics ───────────────
//
// Serie mensual de envíos para el gráfico del panel. ?period acepta
// 7days, 30days o 6months (default).

func analyticsSince(period string, now time.Time) (string, time.Time) {
	switch period {
	case "7days":
		return period, now.AddDate(0, 0, -7)
	case "30days":
		return period, now.AddDate(0, 0, -30)
	default:
		// Primer día del mes de hace 6 meses, para que el gráfico
		// arranque en un mes completo.
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -6, 0)
		return "6months", start
	}
}

func (h *DashboardHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())

	period, since := analyticsSince(r.URL.Query().Get("period"), time.Now().UTC())
	months, err := h.Repo.MonthlyLogCounts(r.Context(), claims.AccountID, since)
	if err != nil {
		logger.From(r.Context()).Error("monthly log counts failed", logger.Err(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudieron calcular las métricas", 1500)
		return
	}
	if months == nil {
		months = []core.MonthCount{}
	}
	var total int64
	for _, m := range months {
		total += m.Total
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"analytics": map[string]any{
			"chart_data":   months,
			"period":       period,
			"total_emails": total,
		},
	})
}
