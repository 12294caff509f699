// Package database opens the libSQL connection behind the sqlite store
// driver.
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/go-libsql"
)

// Memory opens a private in-memory database when passed to Open.
const Memory = ":memory:"

// Open connects to the SQLite file at path through libSQL. File databases
// run in WAL mode with a 5 s busy timeout. An in-memory database lives on a
// single connection, since each new connection would see an empty one.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{"PRAGMA busy_timeout=5000"}
	if path == Memory {
		db.SetMaxOpenConns(1)
	} else {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL")
	}

	// Some PRAGMAs return a row and libSQL rejects those in Exec, so every
	// PRAGMA goes through Query.
	for _, p := range pragmas {
		rows, err := db.QueryContext(ctx, p)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %s: %w", p, err)
		}
		rows.Close()
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}
