package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rsheridan/inkwell/internal/model"
)

// AuditStore reads the append-only audit log. Writes happen inside the
// content stores' transactions via appendAudit.
type AuditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

// List returns the most recent entries, newest first.
func (s *AuditStore) List(limit int) ([]model.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT id, actor_email, action, entity_type, details, created_at
		 FROM audit_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	entries := []model.AuditEntry{}
	for rows.Next() {
		var e model.AuditEntry
		var details string
		if err := rows.Scan(&e.ID, &e.ActorEmail, &e.Action, &e.EntityType, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if err := json.Unmarshal([]byte(details), &e.Details); err != nil {
			return nil, fmt.Errorf("decode audit details: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountByEntity returns the number of entries recorded for an entity type.
func (s *AuditStore) CountByEntity(entityType string) (int64, error) {
	var count int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM audit_log WHERE entity_type = ?`, entityType).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return count, nil
}
