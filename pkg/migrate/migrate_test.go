package migrate

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCartMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_cart_tables.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no cart migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS carts",
		"CHECK ((user_id IS NULL) <> (session_id IS NULL))",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_cart_items_cart_variant ON cart_items (cart_id, variant_id)",
		"CHECK (quantity > 0)",
		"REFERENCES carts(id) ON DELETE CASCADE",
		"CREATE INDEX IF NOT EXISTS ix_cart_events_timestamp",
		"DROP TABLE IF EXISTS cart_events",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("shipped migrations invalid: %v", err)
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatalf("expected invalid filename to fail")
	}

	empty := t.TempDir()
	if err := ValidateDir(empty); err == nil {
		t.Fatalf("expected empty dir to fail")
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Cart Notes!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(path, "_add_cart_notes.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
}

func TestSourceEmbedsShippedMigrations(t *testing.T) {
	fsys, err := Source(DefaultDir)
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	onDisk, _ := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if len(entries) == 0 || len(entries) != len(onDisk) {
		t.Fatalf("embedded %d migrations, %d on disk", len(entries), len(onDisk))
	}

	if _, err := Source(""); err == nil {
		t.Fatalf("expected empty dir to fail")
	}
}

func TestRunRequiresDB(t *testing.T) {
	if err := Run(context.Background(), nil, DefaultDir, "up", nil); err == nil {
		t.Fatalf("expected nil db to fail")
	}
	if err := MigrateToVersion(context.Background(), nil, DefaultDir, ""); err == nil {
		t.Fatalf("expected empty version to fail")
	}
}

func TestCreateSQLMigrationBumpsPastLatestVersion(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	first, err := createSQLMigration(dir, "first", now)
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := createSQLMigration(dir, "second", now)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if filepath.Base(first) != "20260901120000_first.sql" {
		t.Fatalf("unexpected first file %s", first)
	}
	if filepath.Base(second) != "20260901120001_second.sql" {
		t.Fatalf("expected bumped version, got %s", second)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migrations should validate: %v", err)
	}
}

func TestValidateDirChecksEmbeddedDefault(t *testing.T) {
	if err := ValidateDir(DefaultDir); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
}
