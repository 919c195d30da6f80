package poll

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestTaskTicksUntilStopped(t *testing.T) {
	var n atomic.Int32
	task := Start(context.Background(), 5*time.Millisecond, func(context.Context) { n.Add(1) })
	waitFor(t, func() bool { return n.Load() >= 3 })

	task.Stop()
	after := n.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, n.Load(), "no ticks after Stop returns")
}

func TestTaskStopIsIdempotentAndNilSafe(t *testing.T) {
	task := Start(context.Background(), time.Hour, func(context.Context) {})
	task.Stop()
	task.Stop()

	var nilTask *Task
	nilTask.Stop()
	(&Task{}).Stop()
}

func TestTaskStopsWithParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	task := Start(ctx, time.Millisecond, func(context.Context) {})
	cancel()
	select {
	case <-task.done:
	case <-time.After(time.Second):
		t.Fatal("task did not exit after parent cancel")
	}
}

func TestTaskDoesNotOverlap(t *testing.T) {
	var running, overlaps atomic.Int32
	var calls atomic.Int32
	task := Start(context.Background(), time.Millisecond, func(context.Context) {
		if running.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		calls.Add(1)
	})
	waitFor(t, func() bool { return calls.Load() >= 3 })
	task.Stop()
	assert.Zero(t, overlaps.Load())
}

func TestGroupReplaceStopsPrevious(t *testing.T) {
	var g Group
	var first, second atomic.Int32

	g.Replace("chat", Start(context.Background(), time.Millisecond, func(context.Context) { first.Add(1) }))
	waitFor(t, func() bool { return first.Load() > 0 })

	g.Replace("chat", Start(context.Background(), time.Millisecond, func(context.Context) { second.Add(1) }))
	frozen := first.Load()
	waitFor(t, func() bool { return second.Load() > 0 })
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, frozen, first.Load(), "replaced task must be stopped")
	assert.True(t, g.Running("chat"))

	g.Stop("chat")
	assert.False(t, g.Running("chat"))
	g.StopAll()
}

func TestGroupStopAll(t *testing.T) {
	var g Group
	g.Replace("a", Start(context.Background(), time.Millisecond, func(context.Context) {}))
	g.Replace("b", Start(context.Background(), time.Millisecond, func(context.Context) {}))
	g.StopAll()
	assert.False(t, g.Running("a"))
	assert.False(t, g.Running("b"))
}
