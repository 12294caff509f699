package session

import (
	"sync"
	"time"
)

// TimerWaker is the in-process Waker: one pending timer per game, replaced
// on every ScheduleWake.
type TimerWaker struct {
	fire func(code string)

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

func NewTimerWaker(fire func(code string)) *TimerWaker {
	return &TimerWaker{fire: fire, timers: make(map[string]*time.Timer)}
}

func (w *TimerWaker) ScheduleWake(code string, after time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if t, ok := w.timers[code]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(after, func() {
		w.mu.Lock()
		if w.timers[code] == t {
			delete(w.timers, code)
		}
		w.mu.Unlock()
		w.fire(code)
	})
	w.timers[code] = t
}

// Pending returns the number of armed timers.
func (w *TimerWaker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.timers)
}

// Stop cancels every pending timer and ignores later schedules.
func (w *TimerWaker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	for code, t := range w.timers {
		t.Stop()
		delete(w.timers, code)
	}
}
