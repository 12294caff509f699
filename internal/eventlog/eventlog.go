// Package eventlog keeps one game's ordered, append-only event log on top of
// a storage.Store, together with the game's single pending alarm.
//
// A Log is owned by one session actor and is not safe for concurrent use.
package eventlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/playperu/monsterrace/internal/game"
	"github.com/playperu/monsterrace/internal/storage"
)

const eventPrefix = "event/"

// AlarmKey is the default key of the pending deadline, stored in RFC 3339
// form or empty when there is none.
const AlarmKey = "alarm"

var (
	ErrEmptyBatch = errors.New("empty batch")
	ErrNotCreated = errors.New("log must start with GameCreated")
)

// EventKey is the storage key of the event at seq. Keys sort in seq order.
func EventKey(seq int) string {
	return fmt.Sprintf("%s%010d", eventPrefix, seq)
}

type Log struct {
	store    storage.Store
	alarms   storage.Store
	alarmKey string
	hydrated bool
	events   []game.Event
	alarm    time.Time
}

type Option func(*Log)

// WithAlarmAt keeps the alarm under key in alarms instead of next to the
// events, so all pending deadlines can be listed without reading any log.
func WithAlarmAt(alarms storage.Store, key string) Option {
	return func(l *Log) {
		l.alarms = alarms
		l.alarmKey = key
	}
}

// New returns a log reading from and writing to store, which should already be
// scoped to one game.
func New(store storage.Store, opts ...Option) *Log {
	l := &Log{store: store, alarms: store, alarmKey: AlarmKey}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Hydrate loads the persisted events and alarm. Only the first successful call
// reads storage; later calls return nil immediately.
func (l *Log) Hydrate(ctx context.Context) error {
	if l.hydrated {
		return nil
	}

	entries, err := l.store.List(ctx, eventPrefix)
	if err != nil {
		return fmt.Errorf("listing events: %w", err)
	}
	events := make([]game.Event, 0, len(entries))
	for i, e := range entries {
		var ev game.Event
		if err := json.Unmarshal(e.Value, &ev); err != nil {
			return fmt.Errorf("decoding %s: %w", e.Key, err)
		}
		if ev.Seq != i+1 {
			return fmt.Errorf("%s: sequence %d, want %d", e.Key, ev.Seq, i+1)
		}
		if i == 0 && ev.Type() != game.EventGameCreated {
			return ErrNotCreated
		}
		events = append(events, ev)
	}

	alarm, err := l.readAlarm(ctx)
	if err != nil {
		return err
	}

	l.events = events
	l.alarm = alarm
	l.hydrated = true
	return nil
}

func (l *Log) readAlarm(ctx context.Context) (time.Time, error) {
	raw, err := l.alarms.Get(ctx, l.alarmKey)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && len(raw) == 0) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("reading alarm: %w", err)
	}
	at, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("decoding alarm: %w", err)
	}
	return at, nil
}

// Hydrated reports whether Hydrate has succeeded.
func (l *Log) Hydrated() bool {
	return l.hydrated
}

// Events returns the log. The slice is clipped, so appending to it never
// writes into the log.
func (l *Log) Events() []game.Event {
	return slices.Clip(l.events)
}

// Len returns the number of events.
func (l *Log) Len() int {
	return len(l.events)
}

// Append numbers payloads, persists them as one atomic batch and only then
// adds them to the in-memory log. On error the log is unchanged.
func (l *Log) Append(ctx context.Context, payloads ...game.Payload) ([]game.Event, error) {
	if len(payloads) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(l.events) == 0 && payloads[0].EventType() != game.EventGameCreated {
		return nil, ErrNotCreated
	}

	batch := make([]game.Event, len(payloads))
	entries := make([]storage.KV, len(payloads))
	for i, p := range payloads {
		ev := game.Event{Seq: len(l.events) + i + 1, Payload: p}
		data, err := json.Marshal(ev)
		if err != nil {
			return nil, fmt.Errorf("encoding event %d: %w", ev.Seq, err)
		}
		batch[i] = ev
		entries[i] = storage.KV{Key: EventKey(ev.Seq), Value: data}
	}

	if err := l.store.Put(ctx, entries...); err != nil {
		return nil, fmt.Errorf("persisting events: %w", err)
	}
	l.events = append(l.events, batch...)
	return batch, nil
}

// Alarm returns the pending wake-up deadline.
func (l *Log) Alarm() (time.Time, bool) {
	return l.alarm, !l.alarm.IsZero()
}

// SetAlarm persists at as the pending deadline, replacing any other.
func (l *Log) SetAlarm(ctx context.Context, at time.Time) error {
	if at.Equal(l.alarm) {
		return nil
	}
	raw := []byte(at.UTC().Format(time.RFC3339Nano))
	if err := l.alarms.Put(ctx, storage.KV{Key: l.alarmKey, Value: raw}); err != nil {
		return fmt.Errorf("persisting alarm: %w", err)
	}
	l.alarm = at
	return nil
}

// ClearAlarm removes the pending deadline.
func (l *Log) ClearAlarm(ctx context.Context) error {
	if l.alarm.IsZero() {
		return nil
	}
	if err := l.alarms.Put(ctx, storage.KV{Key: l.alarmKey}); err != nil {
		return fmt.Errorf("clearing alarm: %w", err)
	}
	l.alarm = time.Time{}
	return nil
}
