package store

import (
	"database/sql"
	"fmt"

	"github.com/rsheridan/inkwell/internal/model"
)

type SeriesStore struct {
	db *sql.DB
}

func NewSeriesStore(db *sql.DB) *SeriesStore {
	return &SeriesStore{db: db}
}

const seriesCols = `id, slug, title, description, published, deleted_at, created_at, updated_at`

func scanSeries(scanner interface{ Scan(...any) error }) (*model.Series, error) {
	var sr model.Series
	var published int
	var deletedAt sql.NullTime

	err := scanner.Scan(
		&sr.ID, &sr.Slug, &sr.Title, &sr.Description, &published,
		&deletedAt, &sr.CreatedAt, &sr.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	sr.Published = published != 0
	if deletedAt.Valid {
		sr.DeletedAt = &deletedAt.Time
	}
	return &sr, nil
}

func (s *SeriesStore) Create(actor string, sr *model.Series) (*model.Series, error) {
	var id int64
	err := withTx(s.db, func(tx *sql.Tx) error {
		existing, err := liveID(tx, "series", sr.Slug)
		if err != nil {
			return err
		}
		if existing != 0 {
			return ErrDuplicateSlug
		}

		result, err := tx.Exec(
			`INSERT INTO series (slug, title, description, published) VALUES (?, ?, ?, ?)`,
			sr.Slug, sr.Title, sr.Description, boolToInt(sr.Published),
		)
		if err != nil {
			return fmt.Errorf("insert series: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		if err := appendAudit(tx, actor, ActionCreate, "series", map[string]any{"slug": sr.Slug}); err != nil {
			return err
		}
		return markNeedsExport(tx)
	})
	if err != nil {
		return nil, err
	}
	return s.getByID(id)
}

func (s *SeriesStore) getByID(id int64) (*model.Series, error) {
	row := s.db.QueryRow(`SELECT `+seriesCols+` FROM series WHERE id = ?`, id)
	sr, err := scanSeries(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}
	return sr, nil
}

func (s *SeriesStore) GetBySlug(slug string) (*model.Series, error) {
	row := s.db.QueryRow(`SELECT `+seriesCols+` FROM series WHERE slug = ? AND deleted_at IS NULL`, slug)
	sr, err := scanSeries(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get series by slug: %w", err)
	}
	return sr, nil
}

func (s *SeriesStore) List(publishedOnly bool) ([]model.Series, error) {
	query := `SELECT ` + seriesCols + ` FROM series WHERE deleted_at IS NULL`
	if publishedOnly {
		query += ` AND published = 1`
	}
	query += ` ORDER BY slug, id`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()

	list := []model.Series{}
	for rows.Next() {
		sr, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		list = append(list, *sr)
	}
	return list, rows.Err()
}

func (s *SeriesStore) ListForExport() ([]model.Series, error) {
	return s.List(true)
}

func (s *SeriesStore) Update(actor, slug string, sr *model.Series) (*model.Series, error) {
	var id int64
	err := withTx(s.db, func(tx *sql.Tx) error {
		var err error
		id, err = liveID(tx, "series", slug)
		if err != nil {
			return err
		}
		if id == 0 {
			return nil
		}

		_, err = tx.Exec(
			`UPDATE series SET title = ?, description = ?, published = ?, updated_at = datetime('now') WHERE id = ?`,
			sr.Title, sr.Description, boolToInt(sr.Published), id,
		)
		if err != nil {
			return fmt.Errorf("update series: %w", err)
		}
		if err := appendAudit(tx, actor, ActionUpdate, "series", map[string]any{"slug": slug}); err != nil {
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

func (s *SeriesStore) SetPublished(actor, slug string, published bool) (*model.Series, error) {
	var id int64
	err := withTx(s.db, func(tx *sql.Tx) error {
		var err error
		id, err = liveID(tx, "series", slug)
		if err != nil {
			return err
		}
		if id == 0 {
			return nil
		}
		_, err = tx.Exec(
			`UPDATE series SET published = ?, updated_at = datetime('now') WHERE id = ?`,
			boolToInt(published), id,
		)
		if err != nil {
			return fmt.Errorf("publish series: %w", err)
		}
		if err := appendAudit(tx, actor, ActionPublish, "series", map[string]any{"slug": slug, "published": published}); err != nil {
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

func (s *SeriesStore) SoftDelete(actor, slug string) (bool, error) {
	var id int64
	err := withTx(s.db, func(tx *sql.Tx) error {
		var err error
		id, err = liveID(tx, "series", slug)
		if err != nil {
			return err
		}
		if id == 0 {
			return nil
		}
		_, err = tx.Exec(
			`UPDATE series SET deleted_at = datetime('now'), updated_at = datetime('now') WHERE id = ?`, id,
		)
		if err != nil {
			return fmt.Errorf("soft delete series: %w", err)
		}
		if err := appendAudit(tx, actor, ActionDelete, "series", map[string]any{"slug": slug}); err != nil {
			return err
		}
		return markNeedsExport(tx)
	})
	if err != nil {
		return false, err
	}
	return id != 0, nil
}

func (s *SeriesStore) Upsert(actor string, sr *model.Series) (*model.Series, error) {
	existing, err := s.GetBySlug(sr.Slug)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return s.Create(actor, sr)
	}
	return s.Update(actor, sr.Slug, sr)
}
