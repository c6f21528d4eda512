package model

import "time"

// AuditEntry is an append-only record of a successful content mutation.
type AuditEntry struct {
	ID         int64          `json:"id"`
	ActorEmail string         `json:"actor_email"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	Details    map[string]any `json:"details"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ExportState is the singleton dirty flag for the export pipeline.
type ExportState struct {
	NeedsExport bool      `json:"needs_export"`
	UpdatedAt   time.Time `json:"updated_at"`
}
