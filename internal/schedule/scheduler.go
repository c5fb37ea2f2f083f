// Package schedule provides the deferred-job registry used for appointment
// reminders.  Jobs are one-shot, identified by a caller-chosen id, and fire
// on an in-process timer; re-registering an id replaces the pending job.
package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is the payload delivered when a deferred job fires: a rendered message
// and its destination.
type Job struct {
	Message string
	To      string
}

// Scheduler registers time-delayed deliveries.  Schedule has
// replace-or-insert semantics on id and reports false when fireAt has
// already elapsed (nothing is registered in that case).  There is no
// cancellation path in the booking flow; replacing the id is the supported
// way to supersede a pending reminder.
type Scheduler interface {
	Schedule(id string, fireAt time.Time, job Job) bool
	Cancel(id string) bool
}

// Engine is a timer-driven Scheduler.  Each pending job holds one timer;
// firing removes the entry and hands the payload to the send function on a
// fresh goroutine.  Delivery is fire-and-forget: the engine does not retry,
// the send function owns its own retry policy.
type Engine struct {
	send func(ctx context.Context, message, to string)
	now  func() time.Time
	log  *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewEngine constructs an Engine that delivers fired jobs through send.
func NewEngine(send func(ctx context.Context, message, to string), log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		send:   send,
		now:    time.Now,
		log:    log,
		timers: make(map[string]*time.Timer),
	}
}

// WithClock replaces the engine's clock.  Intended for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Schedule registers job to fire at fireAt.  A pending job with the same id
// is replaced.  Returns false, registering nothing, if fireAt is not in the
// future.
func (e *Engine) Schedule(id string, fireAt time.Time, job Job) bool {
	delay := fireAt.Sub(e.now())
	if delay <= 0 {
		e.log.Warn("deferred job skipped, fire time already elapsed", "id", id, "fire_at", fireAt)
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.timers[id]; ok {
		t.Stop()
	}
	e.timers[id] = time.AfterFunc(delay, func() { e.fire(id, job) })
	e.log.Info("deferred job registered", "id", id, "fire_at", fireAt)
	return true
}

// Cancel removes a pending job.  Returns whether anything was pending.
func (e *Engine) Cancel(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.timers[id]
	if ok {
		t.Stop()
		delete(e.timers, id)
	}
	return ok
}

// Pending reports the number of registered jobs that have not fired.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.timers)
}

// Stop cancels every pending job.  Used on shutdown.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}
}

func (e *Engine) fire(id string, job Job) {
	e.mu.Lock()
	delete(e.timers, id)
	e.mu.Unlock()
	e.log.Info("deferred job firing", "id", id, "to", job.To)
	e.send(context.Background(), job.Message, job.To)
}
