package schedule

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	fired []Job
	ch    chan Job
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Job, 16)}
}

func (r *recorder) send(_ context.Context, message, to string) {
	job := Job{Message: message, To: to}
	r.mu.Lock()
	r.fired = append(r.fired, job)
	r.mu.Unlock()
	r.ch <- job
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fired)
}

func waitFor(t *testing.T, ch <-chan Job, d time.Duration) Job {
	t.Helper()
	select {
	case job := <-ch:
		return job
	case <-time.After(d):
		t.Fatal("job did not fire in time")
		return Job{}
	}
}

func TestEngineFiresJob(t *testing.T) {
	rec := newRecorder()
	e := NewEngine(rec.send, slog.Default())
	defer e.Stop()

	ok := e.Schedule("reminder:mia:1", time.Now().Add(30*time.Millisecond), Job{Message: "hola", To: "+549"})
	require.True(t, ok)
	assert.Equal(t, 1, e.Pending())

	job := waitFor(t, rec.ch, 3*time.Second)
	assert.Equal(t, Job{Message: "hola", To: "+549"}, job)

	// The entry is removed once fired.
	assert.Eventually(t, func() bool { return e.Pending() == 0 }, time.Second, 10*time.Millisecond)
}

func TestEngineReplacesPendingJobWithSameID(t *testing.T) {
	rec := newRecorder()
	e := NewEngine(rec.send, slog.Default())
	defer e.Stop()

	require.True(t, e.Schedule("reminder:mia:1", time.Now().Add(60*time.Millisecond), Job{Message: "vieja", To: "+549"}))
	require.True(t, e.Schedule("reminder:mia:1", time.Now().Add(60*time.Millisecond), Job{Message: "nueva", To: "+549"}))
	assert.Equal(t, 1, e.Pending())

	job := waitFor(t, rec.ch, 3*time.Second)
	assert.Equal(t, "nueva", job.Message)

	// Only the replacement fires.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestEngineSkipsPastFireTime(t *testing.T) {
	rec := newRecorder()
	e := NewEngine(rec.send, slog.Default())
	defer e.Stop()

	ok := e.Schedule("reminder:mia:1", time.Now().Add(-time.Minute), Job{Message: "tarde", To: "+549"})
	assert.False(t, ok)
	assert.Equal(t, 0, e.Pending())
}

func TestEngineCancel(t *testing.T) {
	rec := newRecorder()
	e := NewEngine(rec.send, slog.Default())
	defer e.Stop()

	require.True(t, e.Schedule("reminder:mia:1", time.Now().Add(50*time.Millisecond), Job{Message: "hola", To: "+549"}))
	assert.True(t, e.Cancel("reminder:mia:1"))
	assert.False(t, e.Cancel("reminder:mia:1"))

	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}

func TestEngineWithClockRejectsElapsedTimes(t *testing.T) {
	rec := newRecorder()
	fixed := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	e := NewEngine(rec.send, slog.Default()).WithClock(func() time.Time { return fixed })
	defer e.Stop()

	assert.False(t, e.Schedule("a", fixed.Add(-time.Hour), Job{}))
	assert.False(t, e.Schedule("b", fixed, Job{}))
	assert.True(t, e.Schedule("c", fixed.Add(time.Hour), Job{}))
	assert.Equal(t, 1, e.Pending())
}
