package migrations_test

import (
	"context"
	"testing"

	"github.com/playperu/monsterrace/internal/database"
	"github.com/playperu/monsterrace/internal/migrations"
)

func TestMigrations(t *testing.T) {
	db, err := database.Open(context.Background(), database.Memory)
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	v, err := migrations.Run(context.Background(), db)
	if err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	if v != 1 {
		t.Fatalf("schema version = %d, want 1", v)
	}

	var name string
	err = db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?", "kv",
	).Scan(&name)
	if err != nil {
		t.Fatalf("table kv not found: %v", err)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db, err := database.Open(context.Background(), database.Memory)
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if _, err := migrations.Run(context.Background(), db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := migrations.Run(context.Background(), db); err != nil {
		t.Fatalf("second run (should be no-op): %v", err)
	}
}
