// Package session hosts live games. Each game is owned by one Actor: a
// goroutine draining a mailbox, so commands, socket connects and wake-ups
// on the same game never run concurrently.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/playperu/monsterrace/internal/eventlog"
	"github.com/playperu/monsterrace/internal/game"
)

// maxPasses bounds the process-manager fixed point.
const maxPasses = 64

var (
	ErrClosed       = errors.New("session closed")
	ErrGameNotFound = errors.New("game not found")
)

// Waker delivers a Wake to the game with code after the given delay.
type Waker interface {
	ScheduleWake(code string, after time.Duration)
}

type Actor struct {
	code     string
	log      *eventlog.Log
	sockets  socketSet
	waker    Waker
	managers []game.Manager
	now      func() time.Time
	logger   *slog.Logger

	mailbox   chan func()
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

func newActor(code string, log *eventlog.Log, waker Waker, managers []game.Manager, now func() time.Time, logger *slog.Logger) *Actor {
	a := &Actor{
		code:     code,
		log:      log,
		sockets:  socketSet{},
		waker:    waker,
		managers: managers,
		now:      now,
		logger:   logger.With("game", code),
		mailbox:  make(chan func()),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Actor) run() {
	defer close(a.stopped)
	defer a.sockets.closeAll()
	for {
		select {
		case <-a.done:
			return
		default:
		}
		select {
		case fn := <-a.mailbox:
			fn()
		case <-a.done:
			return
		}
	}
}

// do runs fn on the actor goroutine and waits for it. Once fn is accepted it
// runs to completion; ctx only bounds the wait for the mailbox. Nothing runs
// after Close.
func (a *Actor) do(ctx context.Context, fn func(ctx context.Context)) error {
	var closed bool
	finished := make(chan struct{})
	job := func() {
		defer close(finished)
		if a.closing() {
			closed = true
			return
		}
		fn(context.WithoutCancel(ctx))
	}

	select {
	case a.mailbox <- job:
	case <-a.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	if closed {
		return ErrClosed
	}
	return nil
}

// Code returns the game's join code.
func (a *Actor) Code() string {
	return a.code
}

// Close stops the actor and detaches every socket. It waits for the job in
// progress, so once Close returns nothing touches the game's storage through
// this actor. Persisted state is kept. Close must not be called from inside a
// job.
func (a *Actor) Close() {
	a.closeOnce.Do(func() { close(a.done) })
	<-a.stopped
}

func (a *Actor) closing() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}

// Execute decides cmd on behalf of issuer and commits the resulting events,
// then lets the process managers react. A precondition failure is returned as
// a *game.Rejection and leaves the log untouched.
func (a *Actor) Execute(ctx context.Context, issuer game.SessionID, cmd game.Command) error {
	var result error
	err := a.do(ctx, func(ctx context.Context) {
		result = a.execute(ctx, issuer, cmd)
	})
	if err != nil {
		return err
	}
	return result
}

func (a *Actor) execute(ctx context.Context, issuer game.SessionID, cmd game.Command) error {
	if err := a.log.Hydrate(ctx); err != nil {
		return fmt.Errorf("hydrating: %w", err)
	}

	now := a.now()
	d, err := game.Decide(a.log.Events(), issuer, cmd, now)
	if err != nil {
		a.logger.Debug("command rejected", "command", cmd.Kind(), "issuer", issuer, "reason", err)
		return err
	}
	if err := a.commit(ctx, d.Events); err != nil {
		return err
	}

	if d.Effect != nil {
		if follow, ok := d.Effect(a.log.Events()); ok {
			if _, err := a.system(ctx, string(cmd.Kind()), follow, now); err != nil {
				a.logger.Error("follow-up command failed", "command", follow.Kind(), "error", err)
				return nil
			}
		}
	}
	a.react(ctx, now)
	return nil
}

// Wake re-evaluates the process managers against the current time.
func (a *Actor) Wake(ctx context.Context) error {
	var result error
	err := a.do(ctx, func(ctx context.Context) {
		if err := a.log.Hydrate(ctx); err != nil {
			result = fmt.Errorf("hydrating: %w", err)
			return
		}
		if a.log.Len() == 0 {
			result = ErrGameNotFound
			return
		}
		a.react(ctx, a.now())
	})
	if err != nil {
		return err
	}
	return result
}

// Connect sends the full history to s, then attaches it so it receives every
// later commit.
func (a *Actor) Connect(ctx context.Context, s *Socket) error {
	var result error
	err := a.do(ctx, func(ctx context.Context) {
		if err := a.log.Hydrate(ctx); err != nil {
			result = fmt.Errorf("hydrating: %w", err)
			return
		}
		frame, err := json.Marshal(a.log.Events())
		if err != nil {
			result = fmt.Errorf("encoding history: %w", err)
			return
		}
		if !s.send(frame) {
			result = errors.New("socket not accepting frames")
			return
		}
		a.sockets.attach(s)
	})
	if err != nil {
		return err
	}
	return result
}

// Disconnect detaches s. It is safe to call for sockets already dropped.
func (a *Actor) Disconnect(s *Socket) {
	err := a.do(context.Background(), func(context.Context) {
		a.sockets.detach(s)
	})
	if err != nil {
		// The actor is gone and has already released its sockets.
		s.close()
	}
}

// Events returns a copy of the log.
func (a *Actor) Events(ctx context.Context) ([]game.Event, error) {
	var (
		events []game.Event
		result error
	)
	err := a.do(ctx, func(ctx context.Context) {
		if err := a.log.Hydrate(ctx); err != nil {
			result = fmt.Errorf("hydrating: %w", err)
			return
		}
		events = append([]game.Event(nil), a.log.Events()...)
	})
	if err != nil {
		return nil, err
	}
	return events, result
}

// View projects the current state of the game.
func (a *Actor) View(ctx context.Context) (game.View, error) {
	events, err := a.Events(ctx)
	if err != nil {
		return game.View{}, err
	}
	return game.Project(events), nil
}

// exists reports whether the game has been created.
func (a *Actor) exists(ctx context.Context) (bool, error) {
	events, err := a.Events(ctx)
	return len(events) > 0, err
}

// commit persists payloads and broadcasts them as one frame.
func (a *Actor) commit(ctx context.Context, payloads []game.Payload) error {
	if len(payloads) == 0 {
		return nil
	}
	events, err := a.log.Append(ctx, payloads...)
	if err != nil {
		a.logger.Error("persisting events failed", "error", err)
		return err
	}

	frame, err := json.Marshal(events)
	if err != nil {
		a.logger.Error("encoding events failed", "error", err)
		return nil
	}
	if n := a.sockets.broadcast(frame); n > 0 {
		a.logger.Warn("dropped slow sockets", "count", n, "remaining", len(a.sockets))
	}
	return nil
}

// system issues cmd as the system identity and reports whether it appended
// anything. Rejections are anomalies, not failures.
func (a *Actor) system(ctx context.Context, source string, cmd game.Command, now time.Time) (bool, error) {
	d, err := game.Decide(a.log.Events(), game.SystemID, cmd, now)
	var rej *game.Rejection
	if errors.As(err, &rej) {
		a.logger.Warn("system command rejected", "source", source, "command", cmd.Kind(), "code", rej.Code, "reason", rej.Message)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := a.commit(ctx, d.Events); err != nil {
		return false, err
	}
	return len(d.Events) > 0, nil
}

// react runs the process managers to a fixed point and then arms the alarm.
// Failures here are logged: whatever triggered the pass has already been
// committed.
func (a *Actor) react(ctx context.Context, now time.Time) {
	if err := a.settle(ctx, now); err != nil {
		a.logger.Error("process managers failed", "error", err)
		return
	}
	if err := a.schedule(ctx, now); err != nil {
		a.logger.Error("scheduling alarm failed", "error", err)
	}
}

// settle restarts from the first manager whenever one appends events.
func (a *Actor) settle(ctx context.Context, now time.Time) error {
	for pass := 0; pass < maxPasses; pass++ {
		fired := false
		for _, m := range a.managers {
			cmd, ok := m.Command(a.log.Events(), now)
			if !ok {
				continue
			}
			appended, err := a.system(ctx, m.Name, cmd, now)
			if err != nil {
				return fmt.Errorf("%s: %w", m.Name, err)
			}
			if appended {
				fired = true
				break
			}
		}
		if !fired {
			return nil
		}
	}
	a.logger.Warn("process managers did not settle", "passes", maxPasses)
	return nil
}

func (a *Actor) schedule(ctx context.Context, now time.Time) error {
	after, ok := nextAlarm(a.managers, a.log.Events(), now, a.logger)
	if !ok {
		return a.log.ClearAlarm(ctx)
	}
	if err := a.log.SetAlarm(ctx, now.Add(after)); err != nil {
		return err
	}
	a.waker.ScheduleWake(a.code, after)
	return nil
}

// nextAlarm evaluates every alarm-producing manager once. When more than one
// asks for a wake-up the last one wins.
func nextAlarm(managers []game.Manager, events []game.Event, now time.Time, logger *slog.Logger) (time.Duration, bool) {
	var (
		after time.Duration
		owner string
	)
	for _, m := range managers {
		if m.Alarm == nil {
			continue
		}
		d, ok := m.Alarm(events, now)
		if !ok {
			continue
		}
		if owner != "" {
			logger.Warn("conflicting alarms", "kept", m.Name, "discarded", owner)
		}
		after, owner = d, m.Name
	}
	return after, owner != ""
}
