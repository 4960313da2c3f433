package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/mailjohn/internal/auth/apikey"
	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

// APIKeyHandler administra las credenciales de envío de la cuenta.
type APIKeyHandler struct {
	Repo core.Repository
	// Verifier compartido con el endpoint de envío; al revocar hay que
	// invalidar su cache de lookups.
	Keys *apikey.Verifier
}

type apiKeyOut struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Key        string     `json:"key"` // enmascarada salvo en create
	Status     string     `json:"status"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// ─────────────── GET /api/api-keys ───────────────

func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	keys, err := h.Repo.ListAPIKeys(r.Context(), claims.AccountID)
	if err != nil {
		logger.From(r.Context()).Error("list api keys failed", logger.Err(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudieron listar las keys", 1500)
		return
	}
	out := make([]apiKeyOut, 0, len(keys))
	for _, k := range keys {
		out = append(out, apiKeyOut{
			ID:         k.ID,
			Name:       k.Name,
			Key:        k.KeyPrefix,
			Status:     k.Status,
			LastUsedAt: k.LastUsedAt,
			CreatedAt:  k.CreatedAt,
			RevokedAt:  k.RevokedAt,
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"api_keys": out})
}

// ─────────────── POST /api/api-keys ───────────────

func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	var in struct {
		Name string `json:"name"`
		Live bool   `json:"live"`
	}
	if !ReadJSON(w, r, &in) {
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "name es requerido", 1101)
		return
	}

	pair, err := apikey.NewPair(in.Live)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudo generar la key", 1500)
		return
	}

	k := &core.APIKey{
		AccountID:  claims.AccountID,
		Name:       in.Name,
		KeyPrefix:  apikey.Mask(pair.Key), // lo único visible después del create
		KeyHash:    apikey.HashKey(pair.Key),
		SecretHash: apikey.HashSecret(pair.Secret),
	}
	if err := h.Repo.CreateAPIKey(r.Context(), k); err != nil {
		if errors.Is(err, core.ErrConflict) {
			WriteError(w, http.StatusConflict, "conflict", "ya existe una key activa con ese nombre", 1202)
			return
		}
		logger.From(r.Context()).Error("create api key failed", logger.Err(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudo crear la key", 1500)
		return
	}

	// Única vez que key y secret viajan en claro.
	WriteJSON(w, http.StatusCreated, map[string]any{
		"id":         k.ID,
		"name":       k.Name,
		"key":        pair.Key,
		"secret":     pair.Secret,
		"status":     k.Status,
		"created_at": k.CreatedAt,
	})
}

// ─────────────── PUT /api/api-keys/{id} ───────────────

func (h *APIKeyHandler) Rename(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	id := chi.URLParam(r, "id")
	var in struct {
		Name string `json:"name"`
	}
	if !ReadJSON(w, r, &in) {
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "name es requerido", 1101)
		return
	}
	if err := h.Repo.RenameAPIKey(r.Context(), claims.AccountID, id, in.Name); err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			WriteError(w, http.StatusNotFound, "not_found", "key no encontrada", 1404)
		case errors.Is(err, core.ErrConflict):
			WriteError(w, http.StatusConflict, "conflict", "ya existe una key activa con ese nombre", 1202)
		default:
			WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudo renombrar la key", 1500)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─────────────── DELETE /api/api-keys/{id} ───────────────

func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	id := chi.URLParam(r, "id")
	keyHash, err := h.Repo.RevokeAPIKey(r.Context(), claims.AccountID, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "key no encontrada o ya revocada", 1404)
			return
		}
		logger.From(r.Context()).Error("revoke api key failed", logger.APIKeyID(id), logger.Err(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "no se pudo revocar la key", 1500)
		return
	}
	if h.Keys != nil {
		h.Keys.Invalidate(r.Context(), keyHash)
	}
	w.WriteHeader(http.StatusNoContent)
}
