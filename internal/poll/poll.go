// Package poll runs periodic work bound to a cancellable scope.
package poll

import (
	"context"
	"sync"
	"time"
)

// Task is a running periodic job. The zero value and nil are stopped tasks.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start calls fn every period until parent is cancelled or Stop is called.
// Ticks are serialized: a slow fn delays the next tick instead of
// overlapping it, and ticks missed meanwhile are dropped.
func Start(parent context.Context, period time.Duration, fn func(context.Context)) *Task {
	ctx, cancel := context.WithCancel(parent)
	t := &Task{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
	return t
}

// Stop cancels the task and waits until fn is no longer running.
func (t *Task) Stop() {
	if t == nil || t.cancel == nil {
		return
	}
	t.once.Do(func() {
		t.cancel()
		<-t.done
	})
}

// Group holds named tasks of one session.
type Group struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

// Replace installs t under name, stopping the task it replaces.
// A nil t just stops the current one.
func (g *Group) Replace(name string, t *Task) {
	g.mu.Lock()
	old := g.tasks[name]
	if g.tasks == nil {
		g.tasks = make(map[string]*Task)
	}
	if t == nil {
		delete(g.tasks, name)
	} else {
		g.tasks[name] = t
	}
	g.mu.Unlock()
	old.Stop()
}

// Stop stops the task registered under name, if any.
func (g *Group) Stop(name string) {
	g.Replace(name, nil)
}

// Running reports whether a task is registered under name.
func (g *Group) Running(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.tasks[name]
	return ok
}

// StopAll stops every task. Used at session teardown.
func (g *Group) StopAll() {
	g.mu.Lock()
	tasks := g.tasks
	g.tasks = nil
	g.mu.Unlock()
	for _, t := range tasks {
		t.Stop()
	}
}
