package http

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

// LogHandler expone el historial de envíos de la cuenta.
type LogHandler struct {
	Repo core.Repository
}

func logFilterFrom(r *http.Request, accountID string) core.LogFilter {
	q := r.URL.Query()
	f := core.LogFilter{
		AccountID:  accountID,
		TemplateID: q.Get("template_id"),
		Status:     q.Get("status"),
		Search:     q.Get("search"),
		Page:       queryInt(r, "page", 1),
		Limit:      queryInt(r, "limit", 20),
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.From = &t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.To = &t
		}
	}
	return f
}

// ─────────────── GET /api/logs ───────────────

func (h *LogHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	f := logFilterFrom(r, claims.AccountID)

	items, total, err := h.Repo.ListLogs(r.Context(), f)
	if err != nil {
		logger.From(r.Context()).Error("list logs failed", logger.Err(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudieron listar los envíos", 1500)
		return
	}
	// El listado no arrastra el cuerpo completo de cada email.
	for i := range items {
		items[i].Content = ""
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"logs":  items,
		"total": total,
		"page":  f.Page,
		"limit": f.Limit,
	})
}

// ─────────────── GET /api/logs/{id} ───────────────

func (h *LogHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	l, err := h.Repo.GetLog(r.Context(), claims.AccountID, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusNotFound, "not_found", "envío no encontrado", 1404)
		return
	}
	WriteJSON(w, http.StatusOK, l)
}

// ─────────────── GET /api/logs/export ───────────────
//
// format=csv|json (default csv). include_content=true incluye el cuerpo
// renderizado de cada email; por defecto se exporta sin contenido porque
// el dump crece rápido.

func (h *LogHandler) Export(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	f := logFilterFrom(r, claims.AccountID)
	f.Page = 1
	f.Limit = 100

	includeContent, _ := strconv.ParseBool(r.URL.Query().Get("include_content"))
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "json" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "format debe ser csv o json", 1101)
		return
	}

	// Paginamos por adentro para no cargar todo el historial de una.
	var all []core.EmailLog
	for {
		items, total, err := h.Repo.ListLogs(r.Context(), f)
		if err != nil {
			logger.From(r.Context()).Error("export logs failed", logger.Err(err))
			WriteError(w, http.StatusInternalServerError, "internal_error", "export falló", 1500)
			return
		}
		all = append(all, items...)
		if int64(len(all)) >= total || len(items) == 0 {
			break
		}
		f.Page++
	}
	if !includeContent {
		for i := range all {
			all[i].Content = ""
		}
	}

	stamp := time.Now().UTC().Format("20060102-150405")
	if format == "json" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=email-logs-%s.json", stamp))
		WriteJSON(w, http.StatusOK, map[string]any{"logs": all, "count": len(all)})
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=email-logs-%s.csv", stamp))
	cw := csv.NewWriter(w)

	header := []string{"id", "template_id", "recipient", "subject", "status", "error", "sent_at", "created_at"}
	if includeContent {
		header = append(header, "content")
	}
	_ = cw.Write(header)

	for _, l := range all {
		row := []string{
			l.ID,
			strPtr(l.TemplateID),
			l.Recipient,
			l.Subject,
			l.Status,
			strPtr(l.Error),
			timePtr(l.SentAt),
			l.CreatedAt.UTC().Format(time.RFC3339),
		}
		if includeContent {
			row = append(row, l.Content)
		}
		_ = cw.Write(row)
	}
	cw.Flush()
}

func strPtr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func timePtr(p *time.Time) string {
	if p == nil {
		return ""
	}
	return p.UTC().Format(time.RFC3339)
}
