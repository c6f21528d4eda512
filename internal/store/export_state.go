package store

import (
	"database/sql"
	"fmt"

	"github.com/rsheridan/inkwell/internal/model"
)

// ExportStateStore manages the singleton export dirty flag.
type ExportStateStore struct {
	db *sql.DB
}

func NewExportStateStore(db *sql.DB) *ExportStateStore {
	return &ExportStateStore{db: db}
}

func (s *ExportStateStore) Get() (*model.ExportState, error) {
	var st model.ExportState
	var needs int
	err := s.db.QueryRow(`SELECT needs_export, updated_at FROM export_state WHERE id = 1`).
		Scan(&needs, &st.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get export state: %w", err)
	}
	st.NeedsExport = needs != 0
	return &st, nil
}

// MarkDirty raises the flag outside of a content mutation, e.g. after a
// snapshot import or a manual touch.
func (s *ExportStateStore) MarkDirty() error {
	_, err := s.db.Exec(`UPDATE export_state SET needs_export = 1, updated_at = datetime('now') WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("mark dirty: %w", err)
	}
	return nil
}

// Clear lowers the flag after an export run that changed at least one file.
func (s *ExportStateStore) Clear() error {
	_, err := s.db.Exec(`UPDATE export_state SET needs_export = 0, updated_at = datetime('now') WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("clear export state: %w", err)
	}
	return nil
}
