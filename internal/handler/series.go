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

type SeriesHandler struct {
	series *store.SeriesStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewSeriesHandler(ss *store.SeriesStore, hub *websocket.Hub, logger *slog.Logger) *SeriesHandler {
	return &SeriesHandler{series: ss, hub: hub, logger: logger}
}

type seriesRequest struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Published   bool   `json:"published"`
}

func (r *seriesRequest) validate(requireSlug bool) []string {
	var details []string
	if requireSlug {
		if r.Slug == "" {
			details = append(details, "slug is required")
		} else if !slugPattern.MatchString(r.Slug) {
			details = append(details, "slug must contain only lowercase letters, digits and hyphens")
		}
	}
	if strings.TrimSpace(r.Title) == "" {
		details = append(details, "title is required")
	}
	return details
}

func (r *seriesRequest) model() *model.Series {
	return &model.Series{
		Slug:        r.Slug,
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Published:   r.Published,
	}
}

func (h *SeriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req seriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if details := req.validate(true); details != nil {
		writeValidation(w, details)
		return
	}

	sr, err := h.series.Create(auth.Email(r.Context()), req.model())
	if errors.Is(err, store.ErrDuplicateSlug) {
		writeError(w, http.StatusConflict, "slug already exists")
		return
	}
	if err != nil {
		h.logger.Error("create series", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create series")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("series", "created", sr.Slug, nil))
	writeJSON(w, http.StatusCreated, sr)
}

func (h *SeriesHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.series.List(false)
	if err != nil {
		h.logger.Error("list series", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list series")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *SeriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	sr, err := h.series.GetBySlug(r.PathValue("slug"))
	if err != nil {
		h.logger.Error("get series", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get series")
		return
	}
	if sr == nil {
		writeError(w, http.StatusNotFound, "series not found")
		return
	}
	writeJSON(w, http.StatusOK, sr)
}

func (h *SeriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	var req seriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if details := req.validate(false); details != nil {
		writeValidation(w, details)
		return
	}

	sr, err := h.series.Update(auth.Email(r.Context()), slug, req.model())
	if err != nil {
		h.logger.Error("update series", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update series")
		return
	}
	if sr == nil {
		writeError(w, http.StatusNotFound, "series not found")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("series", "updated", sr.Slug, nil))
	writeJSON(w, http.StatusOK, sr)
}

func (h *SeriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	deleted, err := h.series.SoftDelete(auth.Email(r.Context()), slug)
	if err != nil {
		h.logger.Error("delete series", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete series")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "series not found")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("series", "deleted", slug, nil))
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *SeriesHandler) Publish(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	var req publishRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	sr, err := h.series.SetPublished(auth.Email(r.Context()), slug, req.value())
	if err != nil {
		h.logger.Error("publish series", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to publish series")
		return
	}
	if sr == nil {
		writeError(w, http.StatusNotFound, "series not found")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("series", "published", sr.Slug, map[string]any{"published": sr.Published}))
	writeJSON(w, http.StatusOK, sr)
}
