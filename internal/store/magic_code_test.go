package store

import (
	"testing"
	"time"
)

func TestMagicCodeSetAndGet(t *testing.T) {
	db := setupTestDB(t)
	ms := NewMagicCodeStore(db)

	expires := time.Now().UTC().Add(10 * time.Minute)
	if err := ms.Set("worker@example.com", "042137", expires); err != nil {
		t.Fatalf("set: %v", err)
	}

	mc, err := ms.Get("worker@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if mc == nil {
		t.Fatal("expected code, got nil")
	}
	if mc.Code != "042137" {
		t.Errorf("code = %q, want %q", mc.Code, "042137")
	}
}

func TestMagicCodeGetMissing(t *testing.T) {
	db := setupTestDB(t)
	ms := NewMagicCodeStore(db)

	mc, err := ms.Get("nobody@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if mc != nil {
		t.Error("expected nil for missing code")
	}
}

func TestMagicCodeOverwriteLastWriteWins(t *testing.T) {
	db := setupTestDB(t)
	ms := NewMagicCodeStore(db)

	expires := time.Now().UTC().Add(10 * time.Minute)
	ms.Set("worker@example.com", "111111", expires)
	ms.Set("worker@example.com", "222222", expires)

	mc, err := ms.Get("worker@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if mc.Code != "222222" {
		t.Errorf("code = %q, want the most recently issued code", mc.Code)
	}
}

func TestMagicCodeGetReturnsExpiredRow(t *testing.T) {
	db := setupTestDB(t)
	ms := NewMagicCodeStore(db)

	ms.Set("worker@example.com", "333333", time.Now().UTC().Add(-time.Minute))

	// Expired rows are still visible so the caller can tell expired apart
	// from never-requested.
	mc, err := ms.Get("worker@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if mc == nil {
		t.Fatal("expected expired row to be returned")
	}
}

func TestMagicCodeDelete(t *testing.T) {
	db := setupTestDB(t)
	ms := NewMagicCodeStore(db)

	ms.Set("worker@example.com", "444444", time.Now().UTC().Add(10*time.Minute))
	if err := ms.Delete("worker@example.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	mc, _ := ms.Get("worker@example.com")
	if mc != nil {
		t.Error("expected nil after delete")
	}

	// Deleting again is a no-op.
	if err := ms.Delete("worker@example.com"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestMagicCodeDeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	ms := NewMagicCodeStore(db)

	ms.Set("stale@example.com", "555555", time.Now().UTC().Add(-time.Hour))
	ms.Set("fresh@example.com", "666666", time.Now().UTC().Add(time.Hour))

	count, err := ms.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if count != 1 {
		t.Errorf("deleted = %d, want 1", count)
	}

	if mc, _ := ms.Get("fresh@example.com"); mc == nil {
		t.Error("fresh code should survive")
	}
}
