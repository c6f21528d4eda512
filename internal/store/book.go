package store

import (
	"database/sql"
	"fmt"

	"github.com/rsheridan/inkwell/internal/model"
)

type BookStore struct {
	db *sql.DB
}

func NewBookStore(db *sql.DB) *BookStore {
	return &BookStore{db: db}
}

const bookCols = `id, slug, title, subtitle, description, cover_url, badges, publish_date, published, deleted_at, created_at, updated_at`

func scanBook(scanner interface{ Scan(...any) error }) (*model.Book, error) {
	var b model.Book
	var badges string
	var published int
	var deletedAt sql.NullTime

	err := scanner.Scan(
		&b.ID, &b.Slug, &b.Title, &b.Subtitle, &b.Description, &b.CoverURL,
		&badges, &b.PublishDate, &published, &deletedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Published = published != 0
	if deletedAt.Valid {
		b.DeletedAt = &deletedAt.Time
	}
	b.Badges, err = decodeStrings(badges)
	if err != nil {
		return nil, err
	}
	b.Series = []string{}
	return &b, nil
}

type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

// bookSeriesSlugs denormalizes the book_series junction into slugs,
// excluding soft-deleted series.
func bookSeriesSlugs(q querier, bookID int64) ([]string, error) {
	rows, err := q.Query(
		`SELECT s.slug FROM book_series bs
		 JOIN series s ON s.id = bs.series_id
		 WHERE bs.book_id = ? AND s.deleted_at IS NULL
		 ORDER BY s.slug`, bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("list book series: %w", err)
	}
	defer rows.Close()

	slugs := []string{}
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scan series slug: %w", err)
		}
		slugs = append(slugs, slug)
	}
	return slugs, rows.Err()
}

// replaceBookSeries implements full replace-on-update for the junction:
// all existing rows for the book are removed, then the given slugs are
// re-inserted. Slugs that do not resolve to a live series are skipped.
func replaceBookSeries(tx *sql.Tx, bookID int64, seriesSlugs []string) error {
	if _, err := tx.Exec(`DELETE FROM book_series WHERE book_id = ?`, bookID); err != nil {
		return fmt.Errorf("clear book series: %w", err)
	}
	for _, slug := range seriesSlugs {
		_, err := tx.Exec(
			`INSERT OR IGNORE INTO book_series (book_id, series_id)
			 SELECT ?, id FROM series WHERE slug = ? AND deleted_at IS NULL`,
			bookID, slug,
		)
		if err != nil {
			return fmt.Errorf("insert book series %q: %w", slug, err)
		}
	}
	return nil
}

// liveID returns the row id of the live (non-deleted) row with the slug,
// or 0 if none exists.
func liveID(tx *sql.Tx, table, slug string) (int64, error) {
	var id int64
	err := tx.QueryRow(`SELECT id FROM `+table+` WHERE slug = ? AND deleted_at IS NULL`, slug).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("lookup %s by slug: %w", table, err)
	}
	return id, nil
}

// Create inserts a book. A live row with the same slug yields ErrDuplicateSlug.
func (s *BookStore) Create(actor string, b *model.Book, seriesSlugs []string) (*model.Book, error) {
	var id int64
	err := withTx(s.db, func(tx *sql.Tx) error {
		existing, err := liveID(tx, "books", b.Slug)
		if err != nil {
			return err
		}
		if existing != 0 {
			return ErrDuplicateSlug
		}

		badges, err := encodeStrings(b.Badges)
		if err != nil {
			return err
		}
		result, err := tx.Exec(
			`INSERT INTO books (slug, title, subtitle, description, cover_url, badges, publish_date, published)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			b.Slug, b.Title, b.Subtitle, b.Description, b.CoverURL, badges, b.PublishDate, boolToInt(b.Published),
		)
		if err != nil {
			return fmt.Errorf("insert book: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		if err := replaceBookSeries(tx, id, seriesSlugs); err != nil {
			return err
		}
		if err := appendAudit(tx, actor, ActionCreate, "book", map[string]any{"slug": b.Slug}); err != nil {
			return err
		}
		return markNeedsExport(tx)
	})
	if err != nil {
		return nil, err
	}
	return s.getByID(id)
}

func (s *BookStore) getByID(id int64) (*model.Book, error) {
	row := s.db.QueryRow(`SELECT `+bookCols+` FROM books WHERE id = ?`, id)
	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	b.Series, err = bookSeriesSlugs(s.db, b.ID)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetBySlug returns the live book with the slug, or nil. Soft-deleted rows
// are invisible to every read path.
func (s *BookStore) GetBySlug(slug string) (*model.Book, error) {
	row := s.db.QueryRow(`SELECT `+bookCols+` FROM books WHERE slug = ? AND deleted_at IS NULL`, slug)
	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get book by slug: %w", err)
	}
	b.Series, err = bookSeriesSlugs(s.db, b.ID)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// List returns live books ordered by slug, optionally published only.
func (s *BookStore) List(publishedOnly bool) ([]model.Book, error) {
	query := `SELECT ` + bookCols + ` FROM books WHERE deleted_at IS NULL`
	if publishedOnly {
		query += ` AND published = 1`
	}
	query += ` ORDER BY slug, id`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := []model.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range books {
		books[i].Series, err = bookSeriesSlugs(s.db, books[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return books, nil
}

// ListForExport returns published, live books ordered by slug.
func (s *BookStore) ListForExport() ([]model.Book, error) {
	return s.List(true)
}

// Update rewrites the book's fields and junction rows. The slug is the
// lookup key and is never changed. Returns nil if no live row matches.
func (s *BookStore) Update(actor, slug string, b *model.Book, seriesSlugs []string) (*model.Book, error) {
	var id int64
	err := withTx(s.db, func(tx *sql.Tx) error {
		var err error
		id, err = liveID(tx, "books", slug)
		if err != nil {
			return err
		}
		if id == 0 {
			return nil
		}

		badges, err := encodeStrings(b.Badges)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`UPDATE books SET title = ?, subtitle = ?, description = ?, cover_url = ?, badges = ?, publish_date = ?, published = ?, updated_at = datetime('now')
			 WHERE id = ?`,
			b.Title, b.Subtitle, b.Description, b.CoverURL, badges, b.PublishDate, boolToInt(b.Published), id,
		)
		if err != nil {
			return fmt.Errorf("update book: %w", err)
		}

		if err := replaceBookSeries(tx, id, seriesSlugs); err != nil {
			return err
		}
		if err := appendAudit(tx, actor, ActionUpdate, "book", map[string]any{"slug": slug}); err != nil {
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

// SetPublished flips the published flag. Returns nil if no live row matches.
func (s *BookStore) SetPublished(actor, slug string, published bool) (*model.Book, error) {
	var id int64
	err := withTx(s.db, func(tx *sql.Tx) error {
		var err error
		id, err = liveID(tx, "books", slug)
		if err != nil {
			return err
		}
		if id == 0 {
			return nil
		}
		_, err = tx.Exec(
			`UPDATE books SET published = ?, updated_at = datetime('now') WHERE id = ?`,
			boolToInt(published), id,
		)
		if err != nil {
			return fmt.Errorf("publish book: %w", err)
		}
		if err := appendAudit(tx, actor, ActionPublish, "book", map[string]any{"slug": slug, "published": published}); err != nil {
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

// SoftDelete marks the book deleted. The row and its junction history stay
// in place. Returns false if no live row matches.
func (s *BookStore) SoftDelete(actor, slug string) (bool, error) {
	var id int64
	err := withTx(s.db, func(tx *sql.Tx) error {
		var err error
		id, err = liveID(tx, "books", slug)
		if err != nil {
			return err
		}
		if id == 0 {
			return nil
		}
		_, err = tx.Exec(
			`UPDATE books SET deleted_at = datetime('now'), updated_at = datetime('now') WHERE id = ?`, id,
		)
		if err != nil {
			return fmt.Errorf("soft delete book: %w", err)
		}
		if err := appendAudit(tx, actor, ActionDelete, "book", map[string]any{"slug": slug}); err != nil {
			return err
		}
		return markNeedsExport(tx)
	})
	if err != nil {
		return false, err
	}
	return id != 0, nil
}

// Upsert creates the book if no live row has its slug, otherwise updates
// it in place. Used by the snapshot importer.
func (s *BookStore) Upsert(actor string, b *model.Book, seriesSlugs []string) (*model.Book, error) {
	existing, err := s.GetBySlug(b.Slug)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return s.Create(actor, b, seriesSlugs)
	}
	return s.Update(actor, b.Slug, b, seriesSlugs)
}
