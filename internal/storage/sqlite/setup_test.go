package sqlite

import (
	"blogsite/internal/storage"
	"path/filepath"
	"testing"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test_blog.db")

	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate("../../../migrations/sqlite"); err != nil {
		t.Fatalf("migration failed: %v", err)
	}

	return store
}

func mustDate(t *testing.T, s string) storage.Date {
	t.Helper()
	d, err := storage.ParseDate(s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}
