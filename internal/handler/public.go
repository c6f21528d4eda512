package handler

import (
	"log/slog"
	"net/http"

	"github.com/rsheridan/inkwell/internal/store"
)

// PublicHandler serves read-only, published-only content for the site.
type PublicHandler struct {
	books      *store.BookStore
	series     *store.SeriesStore
	worlds     *store.WorldStore
	characters *store.CharacterStore
	logger     *slog.Logger
}

func NewPublicHandler(
	bs *store.BookStore,
	ss *store.SeriesStore,
	ws *store.WorldStore,
	cs *store.CharacterStore,
	logger *slog.Logger,
) *PublicHandler {
	return &PublicHandler{books: bs, series: ss, worlds: ws, characters: cs, logger: logger}
}

func (h *PublicHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.List(true)
	if err != nil {
		h.logger.Error("public list books", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list books")
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *PublicHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.books.GetBySlug(r.PathValue("slug"))
	if err != nil {
		h.logger.Error("public get book", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get book")
		return
	}
	if book == nil || !book.Published {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *PublicHandler) ListSeries(w http.ResponseWriter, r *http.Request) {
	list, err := h.series.List(true)
	if err != nil {
		h.logger.Error("public list series", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list series")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *PublicHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	sr, err := h.series.GetBySlug(r.PathValue("slug"))
	if err != nil {
		h.logger.Error("public get series", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get series")
		return
	}
	if sr == nil || !sr.Published {
		writeError(w, http.StatusNotFound, "series not found")
		return
	}
	writeJSON(w, http.StatusOK, sr)
}

func (h *PublicHandler) ListWorlds(w http.ResponseWriter, r *http.Request) {
	list, err := h.worlds.List(true)
	if err != nil {
		h.logger.Error("public list worlds", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list worlds")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *PublicHandler) GetWorld(w http.ResponseWriter, r *http.Request) {
	world, err := h.worlds.GetBySlug(r.PathValue("slug"))
	if err != nil {
		h.logger.Error("public get world", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get world")
		return
	}
	if world == nil || !world.Published {
		writeError(w, http.StatusNotFound, "world not found")
		return
	}
	writeJSON(w, http.StatusOK, world)
}

func (h *PublicHandler) ListCharacters(w http.ResponseWriter, r *http.Request) {
	list, err := h.characters.List(true)
	if err != nil {
		h.logger.Error("public list characters", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list characters")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *PublicHandler) GetCharacter(w http.ResponseWriter, r *http.Request) {
	ch, err := h.characters.GetBySlug(r.PathValue("slug"))
	if err != nil {
		h.logger.Error("public get character", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get character")
		return
	}
	if ch == nil || !ch.Published {
		writeError(w, http.StatusNotFound, "character not found")
		return
	}
	writeJSON(w, http.StatusOK, ch)
}
