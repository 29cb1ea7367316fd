package store

import (
	"os"
	"strings"
	"testing"
)

func TestGetActivity_CorruptMetadataSurfaces(t *testing.T) {
	f, err := os.CreateTemp("", "dagaz-store-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	// A row written past the store's own codec, e.g. by a broken migration.
	_, err = db.conn.Exec(`
		INSERT INTO activities (id, tenant_id, title, start_at, end_at, completed, module_id, entity_type, entity_id, metadata, created_at, updated_at)
		VALUES ('bad', 'acme', 'broken', 0, NULL, 0, NULL, NULL, NULL, '{not json', 0, 0)
	`)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := db.GetActivity("acme", "bad"); err == nil || !strings.Contains(err.Error(), "metadata") {
		t.Fatalf("err = %v, want metadata decode failure", err)
	}
}
