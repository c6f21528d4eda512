package store

import (
	"database/sql"
	"fmt"

	"github.com/rsheridan/inkwell/internal/model"
)

type CharacterStore struct {
	db *sql.DB
}

func NewCharacterStore(db *sql.DB) *CharacterStore {
	return &CharacterStore{db: db}
}

const characterCols = `id, slug, name, role, bio, tags, published, deleted_at, created_at, updated_at`

func scanCharacter(scanner interface{ Scan(...any) error }) (*model.Character, error) {
	var c model.Character
	var tags string
	var published int
	var deletedAt sql.NullTime

	err := scanner.Scan(
		&c.ID, &c.Slug, &c.Name, &c.Role, &c.Bio, &tags, &published,
		&deletedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Published = published != 0
	if deletedAt.Valid {
		c.DeletedAt = &deletedAt.Time
	}
	c.Tags, err = decodeStrings(tags)
	if err != nil {
		return nil, err
	}
	c.Worlds = []string{}
	return &c, nil
}

func characterWorldSlugs(q querier, characterID int64) ([]string, error) {
	rows, err := q.Query(
		`SELECT w.slug FROM character_worlds cw
		 JOIN worlds w ON w.id = cw.world_id
		 WHERE cw.character_id = ? AND w.deleted_at IS NULL
		 ORDER BY w.slug`, characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("list character worlds: %w", err)
	}
	defer rows.Close()

	slugs := []string{}
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scan world slug: %w", err)
		}
		slugs = append(slugs, slug)
	}
	return slugs, rows.Err()
}

func replaceCharacterWorlds(tx *sql.Tx, characterID int64, worldSlugs []string) error {
	if _, err := tx.Exec(`DELETE FROM character_worlds WHERE character_id = ?`, characterID); err != nil {
		return fmt.Errorf("clear character worlds: %w", err)
	}
	for _, slug := range worldSlugs {
		_, err := tx.Exec(
			`INSERT OR IGNORE INTO character_worlds (character_id, world_id)
			 SELECT ?, id FROM worlds WHERE slug = ? AND deleted_at IS NULL`,
			characterID, slug,
		)
		if err != nil {
			return fmt.Errorf("insert character world %q: %w", slug, err)
		}
	}
	return nil
}

func (s *CharacterStore) Create(actor string, c *model.Character, worldSlugs []string) (*model.Character, error) {
	var id int64
	err := withTx(s.db, func(tx *sql.Tx) error {
		existing, err := liveID(tx, "characters", c.Slug)
		if err != nil {
			return err
		}
		if existing != 0 {
			return ErrDuplicateSlug
		}

		tags, err := encodeStrings(c.Tags)
		if err != nil {
			return err
		}
		result, err := tx.Exec(
			`INSERT INTO characters (slug, name, role, bio, tags, published) VALUES (?, ?, ?, ?, ?, ?)`,
			c.Slug, c.Name, c.Role, c.Bio, tags, boolToInt(c.Published),
		)
		if err != nil {
			return fmt.Errorf("insert character: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		if err := replaceCharacterWorlds(tx, id, worldSlugs); err != nil {
			return err
		}
		if err := appendAudit(tx, actor, ActionCreate, "character", map[string]any{"slug": c.Slug}); err != nil {
			return err
		}
		return markNeedsExport(tx)
	})
	if err != nil {
		return nil, err
	}
	return s.getByID(id)
}

func (s *CharacterStore) getByID(id int64) (*model.Character, error) {
	row := s.db.QueryRow(`SELECT `+characterCols+` FROM characters WHERE id = ?`, id)
	c, err := scanCharacter(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get character: %w", err)
	}
	c.Worlds, err = characterWorldSlugs(s.db, c.ID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CharacterStore) GetBySlug(slug string) (*model.Character, error) {
	row := s.db.QueryRow(`SELECT `+characterCols+` FROM characters WHERE slug = ? AND deleted_at IS NULL`, slug)
	c, err := scanCharacter(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get character by slug: %w", err)
	}
	c.Worlds, err = characterWorldSlugs(s.db, c.ID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CharacterStore) List(publishedOnly bool) ([]model.Character, error) {
	query := `SELECT ` + characterCols + ` FROM characters WHERE deleted_at IS NULL`
	if publishedOnly {
		query += ` AND published = 1`
	}
	query += ` ORDER BY slug, id`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	list := []model.Character{}
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		list = append(list, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range list {
		var err error
		list[i].Worlds, err = characterWorldSlugs(s.db, list[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (s *CharacterStore) ListForExport() ([]model.Character, error) {
	return s.List(true)
}

func (s *CharacterStore) Update(actor, slug string, c *model.Character, worldSlugs []string) (*model.Character, error) {
	var id int64
	err := withTx(s.db, func(tx *sql.Tx) error {
		var err error
		id, err = liveID(tx, "characters", slug)
		if err != nil {
			return err
		}
		if id == 0 {
			return nil
		}

		tags, err := encodeStrings(c.Tags)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`UPDATE characters SET name = ?, role = ?, bio = ?, tags = ?, published = ?, updated_at = datetime('now') WHERE id = ?`,
			c.Name, c.Role, c.Bio, tags, boolToInt(c.Published), id,
		)
		if err != nil {
			return fmt.Errorf("update character: %w", err)
		}

		if err := replaceCharacterWorlds(tx, id, worldSlugs); err != nil {
			return err
		}
		if err := appendAudit(tx, actor, ActionUpdate, "character", map[string]any{"slug": slug}); err != nil {
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

func (s *CharacterStore) SetPublished(actor, slug string, published bool) (*model.Character, error) {
	var id int64
	err := withTx(s.db, func(tx *sql.Tx) error {
		var err error
		id, err = liveID(tx, "characters", slug)
		if err != nil {
			return err
		}
		if id == 0 {
			return nil
		}
		_, err = tx.Exec(
			`UPDATE characters SET published = ?, updated_at = datetime('now') WHERE id = ?`,
			boolToInt(published), id,
		)
		if err != nil {
			return fmt.Errorf("publish character: %w", err)
		}
		if err := appendAudit(tx, actor, ActionPublish, "character", map[string]any{"slug": slug, "published": published}); err != nil {
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

func (s *CharacterStore) SoftDelete(actor, slug string) (bool, error) {
	var id int64
	err := withTx(s.db, func(tx *sql.Tx) error {
		var err error
		id, err = liveID(tx, "characters", slug)
		if err != nil {
			return err
		}
		if id == 0 {
			return nil
		}
		_, err = tx.Exec(
			`UPDATE characters SET deleted_at = datetime('now'), updated_at = datetime('now') WHERE id = ?`, id,
		)
		if err != nil {
			return fmt.Errorf("soft delete character: %w", err)
		}
		if err := appendAudit(tx, actor, ActionDelete, "character", map[string]any{"slug": slug}); err != nil {
			return err
		}
		return markNeedsExport(tx)
	})
	if err != nil {
		return false, err
	}
	return id != 0, nil
}

func (s *CharacterStore) Upsert(actor string, c *model.Character, worldSlugs []string) (*model.Character, error) {
	existing, err := s.GetBySlug(c.Slug)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return s.Create(actor, c, worldSlugs)
	}
	return s.Update(actor, c.Slug, c, worldSlugs)
}
