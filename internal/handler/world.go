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

type WorldHandler struct {
	worlds *store.WorldStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewWorldHandler(ws *store.WorldStore, hub *websocket.Hub, logger *slog.Logger) *WorldHandler {
	return &WorldHandler{worlds: ws, hub: hub, logger: logger}
}

type worldRequest struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Published   bool     `json:"published"`
}

func (r *worldRequest) validate(requireSlug bool) []string {
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

func (r *worldRequest) model() *model.World {
	return &model.World{
		Slug:        r.Slug,
		Name:        strings.TrimSpace(r.Name),
		Description: r.Description,
		Tags:        r.Tags,
		Published:   r.Published,
	}
}

func (h *WorldHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req worldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if details := req.validate(true); details != nil {
		writeValidation(w, details)
		return
	}

	world, err := h.worlds.Create(auth.Email(r.Context()), req.model())
	if errors.Is(err, store.ErrDuplicateSlug) {
		writeError(w, http.StatusConflict, "slug already exists")
		return
	}
	if err != nil {
		h.logger.Error("create world", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create world")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("world", "created", world.Slug, nil))
	writeJSON(w, http.StatusCreated, world)
}

func (h *WorldHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.worlds.List(false)
	if err != nil {
		h.logger.Error("list worlds", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list worlds")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *WorldHandler) Get(w http.ResponseWriter, r *http.Request) {
	world, err := h.worlds.GetBySlug(r.PathValue("slug"))
	if err != nil {
		h.logger.Error("get world", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get world")
		return
	}
	if world == nil {
		writeError(w, http.StatusNotFound, "world not found")
		return
	}
	writeJSON(w, http.StatusOK, world)
}

func (h *WorldHandler) Update(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	var req worldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if details := req.validate(false); details != nil {
		writeValidation(w, details)
		return
	}

	world, err := h.worlds.Update(auth.Email(r.Context()), slug, req.model())
	if err != nil {
		h.logger.Error("update world", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update world")
		return
	}
	if world == nil {
		writeError(w, http.StatusNotFound, "world not found")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("world", "updated", world.Slug, nil))
	writeJSON(w, http.StatusOK, world)
}

func (h *WorldHandler) Delete(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	deleted, err := h.worlds.SoftDelete(auth.Email(r.Context()), slug)
	if err != nil {
		h.logger.Error("delete world", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete world")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "world not found")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("world", "deleted", slug, nil))
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *WorldHandler) Publish(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	var req publishRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	world, err := h.worlds.SetPublished(auth.Email(r.Context()), slug, req.value())
	if err != nil {
		h.logger.Error("publish world", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to publish world")
		return
	}
	if world == nil {
		writeError(w, http.StatusNotFound, "world not found")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("world", "published", world.Slug, map[string]any{"published": world.Published}))
	writeJSON(w, http.StatusOK, world)
}
