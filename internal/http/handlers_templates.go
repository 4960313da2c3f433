package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/mailjohn/internal/email"
	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

// TemplateHandler implementa el CRUD de templates y acciones afines.
type TemplateHandler struct {
	Repo       core.Repository
	Dispatcher *email.Dispatcher
}

var validTemplateTypes = map[string]bool{
	core.TemplateTypeTransactional: true,
	core.TemplateTypeMarketing:     true,
	core.TemplateTypeNotification:  true,
}

var validTemplateStatuses = map[string]bool{
	core.TemplateStatusDraft:    true,
	core.TemplateStatusActive:   true,
	core.TemplateStatusArchived: true,
}

type templateIn struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Content string `json:"content"`
	Type    string `json:"type"`
	Status  string `json:"status"`
}

func (in *templateIn) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Subject = strings.TrimSpace(in.Subject)
	if in.Name == "" || in.Subject == "" || strings.TrimSpace(in.Content) == "" {
		return fmt.Errorf("name, subject y content son requeridos")
	}
	if in.Type == "" {
		in.Type = core.TemplateTypeTransactional
	}
	if !validTemplateTypes[in.Type] {
		return fmt.Errorf("type inválido: %s", in.Type)
	}
	if in.Status != "" && !validTemplateStatuses[in.Status] {
		return fmt.Errorf("status inválido: %s", in.Status)
	}
	return nil
}

func queryInt(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// ─────────────── GET /api/templates ───────────────

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	q := r.URL.Query()

	f := core.TemplateFilter{
		AccountID: claims.AccountID,
		Search:    strings.TrimSpace(q.Get("search")),
		Type:      q.Get("type"),
		Status:    q.Get("status"),
		Page:      queryInt(r, "page", 1),
		Limit:     queryInt(r, "limit", 20),
	}
	items, total, err := h.Repo.ListTemplates(r.Context(), f)
	if err != nil {
		logger.From(r.Context()).Error("list templates failed", logger.Err(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudieron listar los templates", 1500)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"templates": items,
		"total":     total,
		"page":      f.Page,
		"limit":     f.Limit,
	})
}

// ─────────────── POST /api/templates ───────────────

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	var in templateIn
	if !ReadJSON(w, r, &in) {
		return
	}
	if err := in.validate(); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), 1101)
		return
	}

	t := &core.EmailTemplate{
		AccountID: claims.AccountID,
		Name:      in.Name,
		Subject:   in.Subject,
		Content:   in.Content,
		Type:      in.Type,
		Status:    in.Status,
	}
	if err := h.Repo.CreateTemplate(r.Context(), t); err != nil {
		logger.From(r.Context()).Error("create template failed", logger.Err(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudo crear el template", 1500)
		return
	}
	WriteJSON(w, http.StatusCreated, t)
}

// ─────────────── GET /api/templates/{id} ───────────────

func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	t, err := h.Repo.GetTemplate(r.Context(), claims.AccountID, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusNotFound, "not_found", "template no encontrado", 1404)
		return
	}
	usage, _ := h.Repo.TemplateUsage(r.Context(), claims.AccountID, t.ID)
	WriteJSON(w, http.StatusOK, map[string]any{"template": t, "usage": usage})
}

// ─────────────── PUT /api/templates/{id} ───────────────

func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	id := chi.URLParam(r, "id")

	var in templateIn
	if !ReadJSON(w, r, &in) {
		return
	}
	if err := in.validate(); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), 1101)
		return
	}

	t, err := h.Repo.GetTemplate(r.Context(), claims.AccountID, id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "not_found", "template no encontrado", 1404)
		return
	}
	t.Name, t.Subject, t.Content, t.Type = in.Name, in.Subject, in.Content, in.Type
	if in.Status != "" {
		t.Status = in.Status
	}
	if err := h.Repo.UpdateTemplate(r.Context(), t); err != nil {
		logger.From(r.Context()).Error("update template failed", logger.TemplateID(id), logger.Err(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudo actualizar el template", 1500)
		return
	}
	WriteJSON(w, http.StatusOK, t)
}

// ─────────────── DELETE /api/templates/{id} ───────────────
//
// Un template con logs asociados no se borra: se archiva, para que el
// historial de envíos siga apuntando a algo. Sin uso, se borra en serio.

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	id := chi.URLParam(r, "id")

	t, err := h.Repo.GetTemplate(r.Context(), claims.AccountID, id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "not_found", "template no encontrado", 1404)
		return
	}

	usage, err := h.Repo.TemplateUsage(r.Context(), claims.AccountID, id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudo verificar el uso", 1500)
		return
	}
	if usage > 0 {
		t.Status = core.TemplateStatusArchived
		if err := h.Repo.UpdateTemplate(r.Context(), t); err != nil {
			WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudo archivar el template", 1500)
			return
		}
		WriteJSON(w, http.StatusConflict, map[string]any{
			"error":             "template_in_use",
			"error_description": "el template tiene envíos asociados; fue archivado en lugar de borrado",
			"usage":             usage,
			"template":          t,
		})
		return
	}

	if err := h.Repo.DeleteTemplate(r.Context(), claims.AccountID, id); err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudo borrar el template", 1500)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─────────────── POST /api/templates/{id}/duplicate ───────────────

func (h *TemplateHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	src, err := h.Repo.GetTemplate(r.Context(), claims.AccountID, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusNotFound, "not_found", "template no encontrado", 1404)
		return
	}

	name, err := h.copyName(r, claims.AccountID, src.Name)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudo duplicar", 1500)
		return
	}

	dup := &core.EmailTemplate{
		AccountID: claims.AccountID,
		Name:      name,
		Subject:   src.Subject,
		Content:   src.Content,
		Type:      src.Type,
		Status:    core.TemplateStatusDraft, // la copia arranca como borrador
	}
	if err := h.Repo.CreateTemplate(r.Context(), dup); err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudo duplicar", 1500)
		return
	}
	WriteJSON(w, http.StatusCreated, dup)
}

// copyName busca el primer "X (Copy)" / "X (Copy N)" libre.
func (h *TemplateHandler) copyName(r *http.Request, accountID, base string) (string, error) {
	name := base + " (Copy)"
	for i := 2; ; i++ {
		items, _, err := h.Repo.ListTemplates(r.Context(), core.TemplateFilter{
			AccountID: accountID,
			Search:    name,
			Limit:     1,
		})
		if err != nil {
			return "", err
		}
		taken := false
		for _, t := range items {
			if t.Name == name {
				taken = true
				break
			}
		}
		if !taken {
			return name, nil
		}
		name = fmt.Sprintf("%s (Copy %d)", base, i)
		if i > 100 {
			return name, nil
		}
	}
}

// ─────────────── POST /api/templates/{id}/send-test ───────────────

func (h *TemplateHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	var in struct {
		To        string            `json:"to"`
		Variables map[string]string `json:"variables"`
	}
	if !ReadJSON(w, r, &in) {
		return
	}

	log, err := h.Dispatcher.SendTemplate(r.Context(), email.SendTemplateRequest{
		AccountID:  claims.AccountID,
		TemplateID: chi.URLParam(r, "id"),
		To:         in.To,
		Variables:  in.Variables,
	})
	if err != nil {
		writeDispatchError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"log": log})
}

// writeDispatchError mapea errores del dispatcher a HTTP.
func writeDispatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "template no encontrado", 1404)
	case errors.Is(err, email.ErrTemplateInactive):
		WriteError(w, http.StatusUnprocessableEntity, "template_inactive", "el template no está activo", 1301)
	case errors.Is(err, email.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), 1101)
	case errors.Is(err, email.ErrNoSMTPConfig):
		WriteError(w, http.StatusPreconditionFailed, "no_smtp_config", "la cuenta no tiene SMTP configurado", 1302)
	case errors.Is(err, email.ErrSendFailed):
		WriteError(w, http.StatusBadGateway, "send_failed", err.Error(), 1303)
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "envío falló", 1500)
	}
}
