package store

import (
	"database/sql"
	"fmt"

	"github.com/rsheridan/inkwell/internal/model"
)

type WorldStore struct {
	db *sql.DB
}

func NewWorldStore(db *sql.DB) *WorldStore {
	return &WorldStore{db: db}
}

const worldCols = `id, slug, name, description, tags, published, deleted_at, created_at, updated_at`

func scanWorld(scanner interface{ Scan(...any) error }) (*model.World, error) {
	var w model.World
	var tags string
	var published int
	var deletedAt sql.NullTime

	err := scanner.Scan(
		&w.ID, &w.Slug, &w.Name, &w.Description, &tags, &published,
		&deletedAt, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	w.Published = published != 0
	if deletedAt.Valid {
		w.DeletedAt = &deletedAt.Time
	}
	w.Tags, err = decodeStrings(tags)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *WorldStore) Create(actor string, w *model.World) (*model.World, error) {
	var id int64
	err := withTx(s.db, func(tx *sql.Tx) error {
		existing, err := liveID(tx, "worlds", w.Slug)
		if err != nil {
			return err
		}
		if existing != 0 {
			return ErrDuplicateSlug
		}

		tags, err := encodeStrings(w.Tags)
		if err != nil {
			return err
		}
		result, err := tx.Exec(
			`INSERT INTO worlds (slug, name, description, tags, published) VALUES (?, ?, ?, ?, ?)`,
			w.Slug, w.Name, w.Description, tags, boolToInt(w.Published),
		)
		if err != nil {
			return fmt.Errorf("insert world: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		if err := appendAudit(tx, actor, ActionCreate, "world", map[string]any{"slug": w.Slug}); err != nil {
			return err
		}
		return markNeedsExport(tx)
	})
	if err != nil {
		return nil, err
	}
	return s.getByID(id)
}

func (s *WorldStore) getByID(id int64) (*model.World, error) {
	row := s.db.QueryRow(`SELECT `+worldCols+` FROM worlds WHERE id = ?`, id)
	w, err := scanWorld(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get world: %w", err)
	}
	return w, nil
}

func (s *WorldStore) GetBySlug(slug string) (*model.World, error) {
	row := s.db.QueryRow(`SELECT `+worldCols+` FROM worlds WHERE slug = ? AND deleted_at IS NULL`, slug)
	w, err := scanWorld(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get world by slug: %w", err)
	}
	return w, nil
}

func (s *WorldStore) List(publishedOnly bool) ([]model.World, error) {
	query := `SELECT ` + worldCols + ` FROM worlds WHERE deleted_at IS NULL`
	if publishedOnly {
		query += ` AND published = 1`
	}
	query += ` ORDER BY slug, id`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list worlds: %w", err)
	}
	defer rows.Close()

	list := []model.World{}
	for rows.Next() {
		w, err := scanWorld(rows)
		if err != nil {
			return nil, fmt.Errorf("scan world: %w", err)
		}
		list = append(list, *w)
	}
	return list, rows.Err()
}

func (s *WorldStore) ListForExport() ([]model.World, error) {
	return s.List(true)
}

func (s *WorldStore) Update(actor, slug string, w *model.World) (*model.World, error) {
	var id int64
	err := withTx(s.db, func(tx *sql.Tx) error {
		var err error
		id, err = liveID(tx, "worlds", slug)
		if err != nil {
			return err
		}
		if id == 0 {
			return nil
		}

		tags, err := encodeStrings(w.Tags)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`UPDATE worlds SET name = ?, description = ?, tags = ?, published = ?, updated_at = datetime('now') WHERE id = ?`,
			w.Name, w.Description, tags, boolToInt(w.Published), id,
		)
		if err != nil {
			return fmt.Errorf("update world: %w", err)
		}
		if err := appendAudit(tx, actor, ActionUpdate, "world", map[string]any{"slug": slug}); err != nil {
			return err
		}
		return markNeedsExport(tx)
	})
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, nil
	}
	return s.getByID(id)
}

func (s *WorldStore) SetPublished(actor, slug string, published bool) (*model.World, error) {
	var id int64
	err := withTx(s.db, func(tx *sql.Tx) error {
		var err error
		id, err = liveID(tx, "worlds", slug)
		if err != nil {
			return err
		}
		if id == 0 {
			return nil
		}
		_, err = tx.Exec(
			`UPDATE worlds SET published = ?, updated_at = datetime('now') WHERE id = ?`,
			boolToInt(published), id,
		)
		if err != nil {
			return fmt.Errorf("publish world: %w", err)
		}
		if err := appendAudit(tx, actor, ActionPublish, "world", map[string]any{"slug": slug, "published": published}); err != nil {
			return err
		}
		return markNeedsExport(tx)
	})
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, nil
	}
	return s.getByID(id)
}

func (s *WorldStore) SoftDelete(actor, slug string) (bool, error) {
	var id int64
	err := withTx(s.db, func(tx *sql.Tx) error {
		var err error
		id, err = liveID(tx, "worlds", slug)
		if err != nil {
			return err
		}
		if id == 0 {
			return nil
		}
		_, err = tx.Exec(
			`UPDATE worlds SET deleted_at = datetime('now'), updated_at = datetime('now') WHERE id = ?`, id,
		)
		if err != nil {
			return fmt.Errorf("soft delete world: %w", err)
		}
		if err := appendAudit(tx, actor, ActionDelete, "world", map[string]any{"slug": slug}); err != nil {
			return err
		}
		return markNeedsExport(tx)
	})
	if err != nil {
		return false, err
	}
	return id != 0, nil
}

func (s *WorldStore) Upsert(actor string, w *model.World) (*model.World, error) {
	existing, err := s.GetBySlug(w.Slug)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return s.Create(actor, w)
	}
	return s.Update(actor, w.Slug, w)
}
