package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/playperu/monsterrace/internal/eventlog"
	"github.com/playperu/monsterrace/internal/game"
	"github.com/playperu/monsterrace/internal/storage"
)

const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	codeLength   = 6
	codeAttempts = 8
	gamePrefix   = "game/"
	alarmPrefix  = "alarm/"
)

// Registry owns the live actors, one per game code. Actors are started on
// first use and can be evicted at any time; a later Get rebuilds them from
// storage.
type Registry struct {
	store    storage.Store
	logger   *slog.Logger
	now      func() time.Time
	waker    Waker
	timers   *TimerWaker
	managers []game.Manager

	mu     sync.RWMutex
	actors map[string]*Actor
}

type Option func(*Registry)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithWaker replaces the timer-backed waker.
func WithWaker(w Waker) Option {
	return func(r *Registry) { r.waker = w }
}

func NewRegistry(store storage.Store, logger *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		store:    store,
		logger:   logger,
		now:      time.Now,
		managers: game.Managers,
		actors:   make(map[string]*Actor),
	}
	r.timers = NewTimerWaker(r.wake)
	r.waker = r.timers
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func namespace(code string) string {
	return gamePrefix + code + "/"
}

// actor returns the live actor for code, starting one if needed. A
// replacement for an actor that is shutting down is only started once the old
// one has stopped, so at most one actor ever works on a game's log.
func (r *Registry) actor(code string) *Actor {
	for {
		r.mu.RLock()
		a, ok := r.actors[code]
		r.mu.RUnlock()
		if ok && !a.closing() {
			return a
		}
		if ok {
			r.retire(code, a)
			continue
		}

		r.mu.Lock()
		// Double-check after acquiring write lock.
		if a, ok := r.actors[code]; ok {
			r.mu.Unlock()
			if a.closing() {
				r.retire(code, a)
				continue
			}
			return a
		}
		log := eventlog.New(
			storage.Namespace(r.store, namespace(code)),
			eventlog.WithAlarmAt(storage.Namespace(r.store, alarmPrefix), code),
		)
		a = newActor(code, log, r.waker, r.managers, r.now, r.logger)
		r.actors[code] = a
		r.mu.Unlock()
		return a
	}
}

// retire waits for a closing actor to stop and drops it from the map.
func (r *Registry) retire(code string, a *Actor) {
	<-a.stopped
	r.mu.Lock()
	if r.actors[code] == a {
		delete(r.actors, code)
	}
	r.mu.Unlock()
}

// Get returns the actor of an existing game.
func (r *Registry) Get(ctx context.Context, code string) (*Actor, error) {
	code = strings.ToUpper(code)
	a := r.actor(code)
	ok, err := a.exists(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		r.Evict(code)
		return nil, ErrGameNotFound
	}
	return a, nil
}

// Create starts a new game with a fresh join code.
func (r *Registry) Create(ctx context.Context, settings game.Settings) (*Actor, error) {
	for range codeAttempts {
		code, err := newCode()
		if err != nil {
			return nil, err
		}

		a := r.actor(code)
		err = a.Execute(ctx, game.SystemID, game.CreateGame{Code: code, Settings: settings})
		var rej *game.Rejection
		if errors.As(err, &rej) && rej.Code == game.CodeGameExists {
			continue
		}
		if err != nil {
			r.Evict(code)
			return nil, err
		}
		r.logger.Info("game created", "game", code, "payout", settings.Payout, "hand_size", settings.HandSize)
		return a, nil
	}
	return nil, fmt.Errorf("no free game code after %d attempts", codeAttempts)
}

// Evict stops the actor of code, waiting for the command it is running.
// Persisted state and pending wake-ups are kept.
func (r *Registry) Evict(code string) {
	r.mu.RLock()
	a, ok := r.actors[code]
	r.mu.RUnlock()
	if !ok {
		return
	}
	a.Close()
	r.retire(code, a)
}

// Restore re-arms the wake-ups persisted by every game, so timed phases keep
// advancing after a restart. Alarms live under their own prefix, so this reads
// one key per game that ever had a deadline and none of the event logs.
func (r *Registry) Restore(ctx context.Context) (int, error) {
	entries, err := r.store.List(ctx, alarmPrefix)
	if err != nil {
		return 0, fmt.Errorf("listing alarms: %w", err)
	}

	now := r.now()
	restored := 0
	for _, e := range entries {
		code := strings.TrimPrefix(e.Key, alarmPrefix)
		if len(e.Value) == 0 {
			continue
		}
		at, err := time.Parse(time.RFC3339Nano, string(e.Value))
		if err != nil {
			r.logger.Warn("skipping unreadable alarm", "game", code, "error", err)
			continue
		}
		r.waker.ScheduleWake(code, max(0, at.Sub(now)))
		restored++
	}
	return restored, nil
}

// Close stops all actors and pending timers.
func (r *Registry) Close() {
	r.timers.Stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	for code, a := range r.actors {
		a.Close()
		delete(r.actors, code)
	}
}

func (r *Registry) wake(code string) {
	ctx := context.Background()
	a, err := r.Get(ctx, code)
	if err != nil {
		r.logger.Warn("wake for unknown game", "game", code, "error", err)
		return
	}
	if err := a.Wake(ctx); err != nil {
		r.logger.Error("wake failed", "game", code, "error", err)
	}
}

func newCode() (string, error) {
	b := make([]byte, codeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating code: %w", err)
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b), nil
}
