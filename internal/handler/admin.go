package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rsheridan/inkwell/internal/model"
	"github.com/rsheridan/inkwell/internal/store"
)

const defaultAuditLimit = 100

// AdminHandler serves the audit log and export-state views of the admin UI.
type AdminHandler struct {
	audit  *store.AuditStore
	state  *store.ExportStateStore
	logger *slog.Logger
}

func NewAdminHandler(as *store.AuditStore, es *store.ExportStateStore, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{audit: as, state: es, logger: logger}
}

func (h *AdminHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.audit.List(limit)
	if err != nil {
		h.logger.Error("list audit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list audit log")
		return
	}
	if entries == nil {
		entries = []model.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *AdminHandler) GetExportState(w http.ResponseWriter, r *http.Request) {
	state, err := h.state.Get()
	if err != nil {
		h.logger.Error("get export state", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get export state")
		return
	}
	writeJSON(w, http.StatusOK, state)
}
