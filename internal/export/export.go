// Package export produces deterministic JSON snapshots of published
// content for the static frontend, and converges the needs_export flag.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rsheridan/inkwell/internal/store"
)

// Uploader pushes a changed snapshot file to remote storage.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) error
}

type Exporter struct {
	books      *store.BookStore
	series     *store.SeriesStore
	worlds     *store.WorldStore
	characters *store.CharacterStore
	state      *store.ExportStateStore

	dir      string
	uploader Uploader // nil when remote publishing is not configured
	logger   *slog.Logger
}

func NewExporter(
	books *store.BookStore,
	series *store.SeriesStore,
	worlds *store.WorldStore,
	characters *store.CharacterStore,
	state *store.ExportStateStore,
	dir string,
	uploader Uploader,
	logger *slog.Logger,
) *Exporter {
	return &Exporter{
		books:      books,
		series:     series,
		worlds:     worlds,
		characters: characters,
		state:      state,
		dir:        dir,
		uploader:   uploader,
		logger:     logger,
	}
}

// Run executes one export pass. With a clean flag it is a no-op. Any
// table read failure aborts the whole run, leaving the flag set so the
// next invocation retries from scratch. The flag is reset only when at
// least one snapshot file actually changed.
func (e *Exporter) Run(ctx context.Context) (bool, error) {
	st, err := e.state.Get()
	if err != nil {
		return false, err
	}
	if !st.NeedsExport {
		e.logger.Info("export skipped", "reason", "content clean")
		return false, nil
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return false, fmt.Errorf("create export dir: %w", err)
	}

	changed := false
	for _, table := range e.tables() {
		rows, err := table.load()
		if err != nil {
			return false, fmt.Errorf("read %s: %w", table.name, err)
		}
		data, err := marshalSnapshot(rows)
		if err != nil {
			return false, fmt.Errorf("serialize %s: %w", table.name, err)
		}

		fileChanged, err := e.writeIfChanged(ctx, table.name+".json", data)
		if err != nil {
			return false, err
		}
		if fileChanged {
			changed = true
			e.logger.Info("snapshot written", "file", table.name+".json", "bytes", len(data))
		}
	}

	if changed {
		if err := e.state.Clear(); err != nil {
			return false, err
		}
	} else {
		// Nothing moved on disk; keep the flag so a future run retries.
		e.logger.Info("export produced no changes, flag left set")
	}
	return changed, nil
}

type exportTable struct {
	name string
	load func() (any, error)
}

// tables lists the entity result sets in output order. Rows are already
// published-only, live-only, and slug-sorted at the query level.
func (e *Exporter) tables() []exportTable {
	return []exportTable{
		{"books", func() (any, error) { return e.books.ListForExport() }},
		{"series", func() (any, error) { return e.series.ListForExport() }},
		{"worlds", func() (any, error) { return e.worlds.ListForExport() }},
		{"characters", func() (any, error) { return e.characters.ListForExport() }},
	}
}

// marshalSnapshot pretty-prints with 2-space indentation and a trailing
// newline, so snapshots diff cleanly.
func marshalSnapshot(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// writeIfChanged compares byte-for-byte against the previous snapshot and
// writes (and uploads) only on difference, avoiding spurious churn in the
// downstream build.
func (e *Exporter) writeIfChanged(ctx context.Context, name string, data []byte) (bool, error) {
	path := filepath.Join(e.dir, name)

	prev, err := os.ReadFile(path)
	if err == nil && bytes.Equal(prev, data) {
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("read previous snapshot %s: %w", name, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write snapshot %s: %w", name, err)
	}

	if e.uploader != nil {
		if err := e.uploader.Upload(ctx, name, data); err != nil {
			return false, fmt.Errorf("upload snapshot %s: %w", name, err)
		}
	}
	return true, nil
}
