package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MichaelPatrick99/OLLAMA-API/internal/auth"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/models"
)

// KeyHandler serves API key lifecycle endpoints. Keys always belong to
// the calling user; admins may additionally manage other users' keys by
// ID.
type KeyHandler struct {
	keys  *auth.APIKeyService
	users *auth.UserService
}

func NewKeyHandler(keys *auth.APIKeyService, users *auth.UserService) *KeyHandler {
	return &KeyHandler{keys: keys, users: users}
}

type createKeyRequest struct {
	Label       string     `json:"label" validate:"required,max=64"`
	Description string     `json:"description" validate:"max=256"`
	PerHour     int        `json:"limit_per_hour" validate:"min=0"`
	PerDay      int        `json:"limit_per_day" validate:"min=0"`
	PerMonth    int        `json:"limit_per_month" validate:"min=0"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

type createKeyResponse struct {
	Key *models.APIKey `json:"key"`
	// Plaintext is returned exactly once at creation.
	Plaintext string `json:"plaintext"`
}

func (h *KeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := decodeValid(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	pr := principal(r)
	owner, err := h.users.Get(r.Context(), pr.UserID)
	if err != nil {
		WriteError(w, err)
		return
	}

	key, plaintext, err := h.keys.Create(r.Context(), owner, auth.CreateKeyParams{
		Label:       req.Label,
		Description: req.Description,
		Limits: models.QuotaLimits{
			PerHour:  req.PerHour,
			PerDay:   req.PerDay,
			PerMonth: req.PerMonth,
		},
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, createKeyResponse{Key: key, Plaintext: plaintext})
}

func (h *KeyHandler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.keys.List(r.Context(), principal(r).UserID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if keys == nil {
		keys = []models.APIKey{}
	}
	WriteJSON(w, http.StatusOK, keys)
}

type updateKeyRequest struct {
	Label     *string    `json:"label" validate:"omitempty,max=64"`
	PerHour   *int       `json:"limit_per_hour" validate:"omitempty,min=0"`
	PerDay    *int       `json:"limit_per_day" validate:"omitempty,min=0"`
	PerMonth  *int       `json:"limit_per_month" validate:"omitempty,min=0"`
	IsActive  *bool      `json:"is_active"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (h *KeyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, auth.ErrNotFound)
		return
	}

	var req updateKeyRequest
	if err := decodeValid(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	params := auth.UpdateKeyParams{
		Label:     req.Label,
		IsActive:  req.IsActive,
		ExpiresAt: req.ExpiresAt,
	}
	if req.PerHour != nil || req.PerDay != nil || req.PerMonth != nil {
		limits := models.QuotaLimits{}
		if req.PerHour != nil {
			limits.PerHour = *req.PerHour
		}
		if req.PerDay != nil {
			limits.PerDay = *req.PerDay
		}
		if req.PerMonth != nil {
			limits.PerMonth = *req.PerMonth
		}
		params.Limits = &limits
	}

	key, err := h.keys.Update(r.Context(), principal(r), id, params)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, key)
}

func (h *KeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, auth.ErrNotFound)
		return
	}
	if err := h.keys.Revoke(r.Context(), principal(r), id); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
