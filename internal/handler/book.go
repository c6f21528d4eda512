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

type BookHandler struct {
	books  *store.BookStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewBookHandler(bs *store.BookStore, hub *websocket.Hub, logger *slog.Logger) *BookHandler {
	return &BookHandler{books: bs, hub: hub, logger: logger}
}

type bookRequest struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle"`
	Description string   `json:"description"`
	CoverURL    string   `json:"cover_url"`
	Badges      []string `json:"badges"`
	PublishDate string   `json:"publish_date"`
	Published   bool     `json:"published"`
	Series      []string `json:"series"`
}

func (r *bookRequest) validate(requireSlug bool) []string {
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

func (r *bookRequest) model() *model.Book {
	return &model.Book{
		Slug:        r.Slug,
		Title:       strings.TrimSpace(r.Title),
		Subtitle:    r.Subtitle,
		Description: r.Description,
		CoverURL:    r.CoverURL,
		Badges:      r.Badges,
		PublishDate: r.PublishDate,
		Published:   r.Published,
	}
}

func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if details := req.validate(true); details != nil {
		writeValidation(w, details)
		return
	}

	book, err := h.books.Create(auth.Email(r.Context()), req.model(), req.Series)
	if errors.Is(err, store.ErrDuplicateSlug) {
		writeError(w, http.StatusConflict, "slug already exists")
		return
	}
	if err != nil {
		h.logger.Error("create book", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create book")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("book", "created", book.Slug, nil))
	writeJSON(w, http.StatusCreated, book)
}

func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.List(false)
	if err != nil {
		h.logger.Error("list books", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list books")
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	book, err := h.books.GetBySlug(r.PathValue("slug"))
	if err != nil {
		h.logger.Error("get book", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get book")
		return
	}
	if book == nil {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if details := req.validate(false); details != nil {
		writeValidation(w, details)
		return
	}

	book, err := h.books.Update(auth.Email(r.Context()), slug, req.model(), req.Series)
	if err != nil {
		h.logger.Error("update book", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update book")
		return
	}
	if book == nil {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("book", "updated", book.Slug, nil))
	writeJSON(w, http.StatusOK, book)
}

func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	deleted, err := h.books.SoftDelete(auth.Email(r.Context()), slug)
	if err != nil {
		h.logger.Error("delete book", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete book")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("book", "deleted", slug, nil))
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type publishRequest struct {
	Published *bool `json:"published"`
}

// published flips to true unless the body says otherwise.
func (p *publishRequest) value() bool {
	if p.Published == nil {
		return true
	}
	return *p.Published
}

func (h *BookHandler) Publish(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	var req publishRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	book, err := h.books.SetPublished(auth.Email(r.Context()), slug, req.value())
	if err != nil {
		h.logger.Error("publish book", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to publish book")
		return
	}
	if book == nil {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("book", "published", book.Slug, map[string]any{"published": book.Published}))
	writeJSON(w, http.StatusOK, book)
}
