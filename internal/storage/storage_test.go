package storage_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/playperu/monsterrace/internal/database"
	"github.com/playperu/monsterrace/internal/migrations"
	"github.com/playperu/monsterrace/internal/storage"
)

func openSQLite(t *testing.T) *storage.SQLite {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.Memory)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return storage.NewSQLite(db)
}

func openBolt(t *testing.T) *storage.Bolt {
	t.Helper()
	b, err := storage.OpenBolt(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func drivers(t *testing.T) map[string]storage.Store {
	return map[string]storage.Store{
		"memory": storage.NewMemory(),
		"sqlite": openSQLite(t),
		"bolt":   openBolt(t),
	}
}

func TestStoreContract(t *testing.T) {
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := s.Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
				t.Fatalf("Get missing: err = %v, want ErrNotFound", err)
			}

			err := s.Put(ctx,
				storage.KV{Key: "game/B/event/0000000002", Value: []byte("b2")},
				storage.KV{Key: "game/A/event/0000000010", Value: []byte("a10")},
				storage.KV{Key: "game/A/event/0000000002", Value: []byte("a2")},
				storage.KV{Key: "game/A/alarm", Value: []byte("soon")},
			)
			if err != nil {
				t.Fatalf("Put: %v", err)
			}

			got, err := s.Get(ctx, "game/A/alarm")
			if err != nil || string(got) != "soon" {
				t.Fatalf("Get = %q, %v", got, err)
			}

			entries, err := s.List(ctx, "game/A/event/")
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			want := []string{"game/A/event/0000000002", "game/A/event/0000000010"}
			if len(entries) != len(want) {
				t.Fatalf("List returned %d entries, want %d", len(entries), len(want))
			}
			for i, e := range entries {
				if e.Key != want[i] {
					t.Errorf("entry %d = %s, want %s", i, e.Key, want[i])
				}
			}

			if err := s.Put(ctx, storage.KV{Key: "game/A/alarm", Value: nil}); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, err = s.Get(ctx, "game/A/alarm")
			if err != nil || len(got) != 0 {
				t.Fatalf("after clearing Get = %q, %v", got, err)
			}
		})
	}
}

func TestListOrderManyKeys(t *testing.T) {
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 120; i >= 1; i-- {
				key := fmt.Sprintf("event/%010d", i)
				if err := s.Put(ctx, storage.KV{Key: key, Value: []byte(key)}); err != nil {
					t.Fatalf("Put %s: %v", key, err)
				}
			}
			entries, err := s.List(ctx, "event/")
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(entries) != 120 {
				t.Fatalf("got %d entries, want 120", len(entries))
			}
			for i, e := range entries {
				if want := fmt.Sprintf("event/%010d", i+1); e.Key != want {
					t.Fatalf("entry %d = %s, want %s", i, e.Key, want)
				}
			}
		})
	}
}

func TestNamespace(t *testing.T) {
	ctx := context.Background()
	base := storage.NewMemory()
	a := storage.Namespace(base, "game/AAAAAA/")
	b := storage.Namespace(base, "game/BBBBBB/")

	if err := a.Put(ctx, storage.KV{Key: "event/0000000001", Value: []byte("x")}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := base.Get(ctx, "game/AAAAAA/event/0000000001"); err != nil {
		t.Fatalf("expected prefixed key in base store: %v", err)
	}

	entries, err := a.List(ctx, "")
	if err != nil || len(entries) != 1 || entries[0].Key != "event/0000000001" {
		t.Fatalf("a.List = %+v, %v", entries, err)
	}
	entries, err = b.List(ctx, "")
	if err != nil || len(entries) != 0 {
		t.Fatalf("b.List = %+v, %v", entries, err)
	}
}

func deadRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         "localhost:1",
		DialTimeout:  10 * time.Millisecond,
		ReadTimeout:  10 * time.Millisecond,
		WriteTimeout: 10 * time.Millisecond,
		MaxRetries:   -1,
	})
}

func TestRedisPropagatesErrors(t *testing.T) {
	rdb := deadRedis()
	defer rdb.Close()
	s := storage.NewRedis(rdb)
	ctx := context.Background()

	if err := s.Put(ctx, storage.KV{Key: "k", Value: []byte("v")}); err == nil {
		t.Error("Put: expected error")
	}
	if _, err := s.Get(ctx, "k"); err == nil || errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get: err = %v, want connection error", err)
	}
	if _, err := s.List(ctx, "k"); err == nil {
		t.Error("List: expected error")
	}
	if err := s.Check(ctx); err == nil {
		t.Error("Check: expected error")
	}
}
