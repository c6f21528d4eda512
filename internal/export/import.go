package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rsheridan/inkwell/internal/model"
	"github.com/rsheridan/inkwell/internal/store"
)

// importActor is the audit identity recorded for snapshot imports.
const importActor = "import"

// Importer reads snapshot files back into the database, upserting by
// slug. Missing files are skipped; a malformed file aborts the run.
type Importer struct {
	books      *store.BookStore
	series     *store.SeriesStore
	worlds     *store.WorldStore
	characters *store.CharacterStore

	dir    string
	logger *slog.Logger
}

func NewImporter(
	books *store.BookStore,
	series *store.SeriesStore,
	worlds *store.WorldStore,
	characters *store.CharacterStore,
	dir string,
	logger *slog.Logger,
) *Importer {
	return &Importer{
		books:      books,
		series:     series,
		worlds:     worlds,
		characters: characters,
		dir:        dir,
		logger:     logger,
	}
}

// Run imports every snapshot file found in the directory and returns the
// number of rows upserted. Series and worlds import before books and
// characters so junction slugs resolve.
func (i *Importer) Run() (int, error) {
	total := 0

	var seriesList []model.Series
	n, err := i.readFile("series.json", &seriesList)
	if err != nil {
		return total, err
	}
	if n {
		for idx := range seriesList {
			if _, err := i.series.Upsert(importActor, &seriesList[idx]); err != nil {
				return total, fmt.Errorf("import series %q: %w", seriesList[idx].Slug, err)
			}
			total++
		}
	}

	var worldList []model.World
	n, err = i.readFile("worlds.json", &worldList)
	if err != nil {
		return total, err
	}
	if n {
		for idx := range worldList {
			if _, err := i.worlds.Upsert(importActor, &worldList[idx]); err != nil {
				return total, fmt.Errorf("import world %q: %w", worldList[idx].Slug, err)
			}
			total++
		}
	}

	var bookList []model.Book
	n, err = i.readFile("books.json", &bookList)
	if err != nil {
		return total, err
	}
	if n {
		for idx := range bookList {
			b := &bookList[idx]
			if _, err := i.books.Upsert(importActor, b, b.Series); err != nil {
				return total, fmt.Errorf("import book %q: %w", b.Slug, err)
			}
			total++
		}
	}

	var characterList []model.Character
	n, err = i.readFile("characters.json", &characterList)
	if err != nil {
		return total, err
	}
	if n {
		for idx := range characterList {
			c := &characterList[idx]
			if _, err := i.characters.Upsert(importActor, c, c.Worlds); err != nil {
				return total, fmt.Errorf("import character %q: %w", c.Slug, err)
			}
			total++
		}
	}

	i.logger.Info("import finished", "rows", total)
	return total, nil
}

// readFile loads one snapshot file into v. The bool reports whether the
// file existed.
func (i *Importer) readFile(name string, v any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(i.dir, name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parse %s: %w", name, err)
	}
	return true, nil
}
