package db

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestUpMigrations_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"0002_payments.up.sql",
		"0001_kv_store.up.sql",
		"0001_kv_store.down.sql",
		"README.md",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.up.sql"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := upMigrations(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"0001_kv_store.up.sql", "0002_payments.up.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("upMigrations = %v, want %v", got, want)
	}
}

func TestUpMigrations_MissingDir(t *testing.T) {
	if _, err := upMigrations(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestRepoMigrationsPresent(t *testing.T) {
	got, err := upMigrations(filepath.Join("..", "..", "migrations"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 {
		t.Fatal("no migrations found in repository")
	}
}
