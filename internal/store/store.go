// Package store implements the persistence layer over SQLite.
//
// Content mutations run in a single transaction that covers the primary
// write, the audit_log append, and the export_state dirty flag, so a
// mutation is never audited without marking content dirty or vice versa.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDuplicateSlug is returned when a create would collide with a live
// (non-deleted) row holding the same slug.
var ErrDuplicateSlug = errors.New("duplicate slug")

// Audit actions recorded for content mutations.
const (
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionPublish = "publish"
)

func withTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// appendAudit writes one audit_log row inside the mutation's transaction.
func appendAudit(tx *sql.Tx, actorEmail, action, entityType string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	data, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO audit_log (actor_email, action, entity_type, details) VALUES (?, ?, ?, ?)`,
		actorEmail, action, entityType, string(data),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// markNeedsExport raises the export dirty flag inside the mutation's transaction.
func markNeedsExport(tx *sql.Tx) error {
	_, err := tx.Exec(`UPDATE export_state SET needs_export = 1, updated_at = datetime('now') WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("mark needs export: %w", err)
	}
	return nil
}

// encodeStrings JSON-encodes a string slice for storage in a TEXT column.
func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode string array: %w", err)
	}
	return string(data), nil
}

// decodeStrings decodes a JSON-encoded TEXT column back to a string slice.
func decodeStrings(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("decode string array: %w", err)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
