package eventlog_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/monsterrace/internal/eventlog"
	"github.com/playperu/monsterrace/internal/game"
	"github.com/playperu/monsterrace/internal/payout"
	"github.com/playperu/monsterrace/internal/storage"
)

var created = game.GameCreated{Code: "ZXCVBN", Settings: game.Settings{Payout: payout.ModelPool}}

// flakyStore fails every Put while broken is set.
type flakyStore struct {
	storage.Store
	broken bool
}

func (f *flakyStore) Put(ctx context.Context, entries ...storage.KV) error {
	if f.broken {
		return errors.New("disk full")
	}
	return f.Store.Put(ctx, entries...)
}

func TestAppendAndHydrate(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()

	l := eventlog.New(store)
	if err := l.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate empty: %v", err)
	}
	got, err := l.Append(ctx, created, game.PlayerJoined{SessionID: uuid.New(), Name: "Ann"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if got[0].Seq != 1 || got[1].Seq != 2 {
		t.Fatalf("seqs = %d, %d", got[0].Seq, got[1].Seq)
	}

	again := eventlog.New(store)
	if err := again.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	events := again.Events()
	if len(events) != 2 || events[1].Type() != game.EventPlayerJoined {
		t.Fatalf("events = %+v", events)
	}
	if p := events[1].Payload.(game.PlayerJoined); p.Name != "Ann" {
		t.Fatalf("name = %q", p.Name)
	}
}

func TestHydrateOnlyOnce(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	if _, err := eventlog.New(store).Append(ctx, created); err != nil {
		t.Fatalf("append: %v", err)
	}

	l := eventlog.New(store)
	if err := l.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	// Written behind the log's back; a second Hydrate must not pick it up.
	raw, err := json.Marshal(game.Event{Seq: 2, Payload: game.PlayerReady{}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := store.Put(ctx, storage.KV{Key: eventlog.EventKey(2), Value: raw}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := l.Hydrate(ctx); err != nil {
		t.Fatalf("second hydrate: %v", err)
	}
	if l.Len() != 1 {
		t.Fatalf("len = %d, want 1", l.Len())
	}
}

func TestFailedPersistLeavesLogUnchanged(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Store: storage.NewMemory()}
	l := eventlog.New(store)
	if _, err := l.Append(ctx, created); err != nil {
		t.Fatalf("append: %v", err)
	}

	store.broken = true
	if _, err := l.Append(ctx, game.PlayerReady{SessionID: uuid.New()}); err == nil {
		t.Fatal("expected append to fail")
	}
	if l.Len() != 1 {
		t.Fatalf("len = %d after failed append, want 1", l.Len())
	}

	store.broken = false
	got, err := l.Append(ctx, game.PlayerReady{SessionID: uuid.New()})
	if err != nil {
		t.Fatalf("append after recovery: %v", err)
	}
	if got[0].Seq != 2 {
		t.Fatalf("seq = %d, want 2", got[0].Seq)
	}
}

func TestAppendRules(t *testing.T) {
	ctx := context.Background()
	l := eventlog.New(storage.NewMemory())

	if _, err := l.Append(ctx); !errors.Is(err, eventlog.ErrEmptyBatch) {
		t.Fatalf("err = %v, want ErrEmptyBatch", err)
	}
	if _, err := l.Append(ctx, game.PlayerReady{}); !errors.Is(err, eventlog.ErrNotCreated) {
		t.Fatalf("err = %v, want ErrNotCreated", err)
	}
}

func TestEventsIsClipped(t *testing.T) {
	ctx := context.Background()
	l := eventlog.New(storage.NewMemory())
	if _, err := l.Append(ctx, created); err != nil {
		t.Fatalf("append: %v", err)
	}
	future := append(l.Events(), game.Event{Seq: 2, Payload: game.PlayerReady{}})
	if len(future) != 2 || l.Len() != 1 {
		t.Fatalf("appending to Events() changed the log: len %d", l.Len())
	}
}

func TestHydrateRejectsGap(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	if _, err := eventlog.New(store).Append(ctx, created, game.PlayerReady{}); err != nil {
		t.Fatalf("append: %v", err)
	}
	raw, _ := store.Get(ctx, eventlog.EventKey(2))
	if err := store.Put(ctx, storage.KV{Key: eventlog.EventKey(3), Value: raw}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := eventlog.New(store).Hydrate(ctx); err == nil {
		t.Fatal("expected a sequence error")
	}
}

func TestAlarm(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	l := eventlog.New(store)
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	if err := l.SetAlarm(ctx, at); err != nil {
		t.Fatalf("set: %v", err)
	}
	restored := eventlog.New(store)
	if err := restored.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if got, ok := restored.Alarm(); !ok || !got.Equal(at) {
		t.Fatalf("alarm = %v %v, want %v", got, ok, at)
	}

	if err := restored.ClearAlarm(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	cleared := eventlog.New(store)
	if err := cleared.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if _, ok := cleared.Alarm(); ok {
		t.Fatal("alarm should be cleared")
	}
}

func TestAlarmKeptInSeparateStore(t *testing.T) {
	ctx := context.Background()
	root := storage.NewMemory()
	games := storage.Namespace(root, "game/ZXCVBN/")
	alarms := storage.Namespace(root, "alarm/")
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	l := eventlog.New(games, eventlog.WithAlarmAt(alarms, "ZXCVBN"))
	if _, err := l.Append(ctx, created); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := l.SetAlarm(ctx, at); err != nil {
		t.Fatalf("set: %v", err)
	}

	if _, err := games.Get(ctx, eventlog.AlarmKey); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("alarm written next to events: err = %v", err)
	}
	entries, err := root.List(ctx, "alarm/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Key != "alarm/ZXCVBN" {
		t.Fatalf("alarm index = %+v", entries)
	}

	restored := eventlog.New(games, eventlog.WithAlarmAt(alarms, "ZXCVBN"))
	if err := restored.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if got, ok := restored.Alarm(); !ok || !got.Equal(at) {
		t.Fatalf("alarm = %v %v, want %v", got, ok, at)
	}
}
