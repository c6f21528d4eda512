package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rsheridan/inkwell/internal/auth"
	"github.com/rsheridan/inkwell/internal/model"
	"github.com/rsheridan/inkwell/internal/store"
	"github.com/rsheridan/inkwell/internal/websocket"
)

type CharacterHandler struct {
	characters *store.CharacterStore
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewCharacterHandler(cs *store.CharacterStore, hub *websocket.Hub, logger *slog.Logger) *CharacterHandler {
	return &CharacterHandler{characters: cs, hub: hub, logger: logger}
}

type characterRequest struct {
	Slug      string   `json:"slug"`
	Name      string   `json:"name"`
	Role      string   `json:"role"`
	Bio       string   `json:"bio"`
	Tags      []string `json:"tags"`
	Published bool     `json:"published"`
	Worlds    []string `json:"worlds"`
}

func (r *characterRequest) validate(requireSlug bool) []string {
	var details []string
	if requireSlug {
		if r.Slug == "" {
			details = append(details, "slug is required")
		} else if !slugPattern.MatchString(r.Slug) {
			details = append(details, "slug must contain only lowercase letters, digits and hyphens")
		}
	}
	if strings.TrimSpace(r.Name) == "" {
		details = append(details, "name is required")
	}
	return details
}

func (r *characterRequest) model() *model.Character {
	return &model.Character{
		Slug:      r.Slug,
		Name:      strings.TrimSpace(r.Name),
		Role:      r.Role,
		Bio:       r.Bio,
		Tags:      r.Tags,
		Published: r.Published,
	}
}

func (h *CharacterHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req characterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if details := req.validate(true); details != nil {
		writeValidation(w, details)
		return
	}

	ch, err := h.characters.Create(auth.Email(r.Context()), req.model(), req.Worlds)
	if errors.Is(err, store.ErrDuplicateSlug) {
		writeError(w, http.StatusConflict, "slug already exists")
		return
	}
	if err != nil {
		h.logger.Error("create character", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create character")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("character", "created", ch.Slug, nil))
	writeJSON(w, http.StatusCreated, ch)
}

func (h *CharacterHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.characters.List(false)
	if err != nil {
		h.logger.Error("list characters", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list characters")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *CharacterHandler) Get(w http.ResponseWriter, r *http.Request) {
	ch, err := h.characters.GetBySlug(r.PathValue("slug"))
	if err != nil {
		h.logger.Error("get character", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get character")
		return
	}
	if ch == nil {
		writeError(w, http.StatusNotFound, "character not found")
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (h *CharacterHandler) Update(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	var req characterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if details := req.validate(false); details != nil {
		writeValidation(w, details)
		return
	}

	ch, err := h.characters.Update(auth.Email(r.Context()), slug, req.model(), req.Worlds)
	if err != nil {
		h.logger.Error("update character", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update character")
		return
	}
	if ch == nil {
		writeError(w, http.StatusNotFound, "character not found")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("character", "updated", ch.Slug, nil))
	writeJSON(w, http.StatusOK, ch)
}

func (h *CharacterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	deleted, err := h.characters.SoftDelete(auth.Email(r.Context()), slug)
	if err != nil {
		h.logger.Error("delete character", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete character")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "character not found")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("character", "deleted", slug, nil))
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *CharacterHandler) Publish(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	var req publishRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	ch, err := h.characters.SetPublished(auth.Email(r.Context()), slug, req.value())
	if err != nil {
		h.logger.Error("publish character", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to publish character")
		return
	}
	if ch == nil {
		writeError(w, http.StatusNotFound, "character not found")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("character", "published", ch.Slug, map[string]any{"published": ch.Published}))
	writeJSON(w, http.StatusOK, ch)
}
