package store

import (
	"testing"

	"github.com/rsheridan/inkwell/internal/model"
)

func TestCharacterWorldJunction(t *testing.T) {
	db := setupTestDB(t)
	cs := NewCharacterStore(db)
	ws := NewWorldStore(db)

	ws.Create("worker@example.com", &model.World{Slug: "emberfall", Name: "Emberfall"})
	ws.Create("worker@example.com", &model.World{Slug: "veldt", Name: "The Veldt"})

	ch, err := cs.Create("worker@example.com", &model.Character{
		Slug: "mara",
		Name: "Mara",
		Tags: []string{"protagonist"},
	}, []string{"veldt", "emberfall", "not-a-world"})
	if err != nil {
		t.Fatalf("create character: %v", err)
	}
	// Denormalized slugs come back sorted; the unknown slug is skipped.
	if len(ch.Worlds) != 2 || ch.Worlds[0] != "emberfall" || ch.Worlds[1] != "veldt" {
		t.Errorf("worlds = %v, want [emberfall veldt]", ch.Worlds)
	}

	updated, err := cs.Update("worker@example.com", "mara", &model.Character{Name: "Mara"}, []string{"veldt"})
	if err != nil {
		t.Fatalf("update character: %v", err)
	}
	if len(updated.Worlds) != 1 || updated.Worlds[0] != "veldt" {
		t.Errorf("worlds = %v, want [veldt]", updated.Worlds)
	}
}

func TestCharacterDuplicateSlug(t *testing.T) {
	db := setupTestDB(t)
	cs := NewCharacterStore(db)

	cs.Create("worker@example.com", &model.Character{Slug: "mara", Name: "Mara"}, nil)
	_, err := cs.Create("worker@example.com", &model.Character{Slug: "mara", Name: "Other Mara"}, nil)
	if err != ErrDuplicateSlug {
		t.Fatalf("err = %v, want ErrDuplicateSlug", err)
	}
}

func TestWorldTagsRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ws := NewWorldStore(db)

	w, err := ws.Create("worker@example.com", &model.World{
		Slug: "emberfall",
		Name: "Emberfall",
		Tags: []string{"volcanic", "ancient"},
	})
	if err != nil {
		t.Fatalf("create world: %v", err)
	}
	if len(w.Tags) != 2 || w.Tags[0] != "volcanic" {
		t.Errorf("tags = %v, want [volcanic ancient]", w.Tags)
	}

	got, _ := ws.GetBySlug("emberfall")
	if len(got.Tags) != 2 {
		t.Errorf("tags after read = %v", got.Tags)
	}
}

func TestSeriesSoftDeleteNotFoundAfter(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSeriesStore(db)

	ss.Create("worker@example.com", &model.Series{Slug: "alpha", Title: "Alpha"})

	found, err := ss.SoftDelete("worker@example.com", "alpha")
	if err != nil || !found {
		t.Fatalf("soft delete: found=%v err=%v", found, err)
	}

	// A second delete targets an already-deleted row: not found.
	found, err = ss.SoftDelete("worker@example.com", "alpha")
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if found {
		t.Error("already-deleted series should report not found")
	}
}
