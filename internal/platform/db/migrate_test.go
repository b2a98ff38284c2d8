package db

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestMigratorLoad(t *testing.T) {
	files := fstest.MapFS{
		"001_pacientes.sql": {Data: []byte("CREATE TABLE pacientes (cpf VARCHAR(14) PRIMARY KEY);")},
		"002_cirurgias.sql": {Data: []byte("CREATE TABLE cirurgias (id SERIAL PRIMARY KEY);")},
	}

	migrations, err := NewMigrator(nil, files).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "001_pacientes.sql" {
		t.Errorf("unexpected first migration: %+v", migrations[0])
	}
	if !strings.Contains(migrations[1].SQL, "cirurgias") {
		t.Errorf("unexpected SQL content: %s", migrations[1].SQL)
	}
}

func TestMigratorLoad_SortOrder(t *testing.T) {
	files := fstest.MapFS{
		"010_late.sql":   {Data: []byte("SELECT 10;")},
		"002_second.sql": {Data: []byte("SELECT 2;")},
		"001_first.sql":  {Data: []byte("SELECT 1;")},
	}

	migrations, err := NewMigrator(nil, files).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := []int{1, 2, 10}
	for i, v := range want {
		if migrations[i].Version != v {
			t.Errorf("position %d: expected version %d, got %d", i, v, migrations[i].Version)
		}
	}
}

func TestMigratorLoad_SkipsNonMigrations(t *testing.T) {
	files := fstest.MapFS{
		"001_init.sql":     {Data: []byte("SELECT 1;")},
		"README.md":        {Data: []byte("docs")},
		"seed.sql":         {Data: []byte("SELECT 0;")},
		"abc_bad.sql":      {Data: []byte("SELECT 0;")},
		"sub/002_deep.sql": {Data: []byte("SELECT 2;")},
	}

	migrations, err := NewMigrator(nil, files).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(migrations) != 1 {
		t.Fatalf("expected 1 migration, got %d", len(migrations))
	}
}

func TestMigratorLoad_DuplicateVersion(t *testing.T) {
	files := fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"01_b.sql":  {Data: []byte("SELECT 1;")},
	}

	if _, err := NewMigrator(nil, files).Load(); err == nil {
		t.Fatal("expected duplicate version error")
	}
}

func TestMigratorLoad_Empty(t *testing.T) {
	migrations, err := NewMigrator(nil, fstest.MapFS{}).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(migrations) != 0 {
		t.Errorf("expected no migrations, got %d", len(migrations))
	}
}
