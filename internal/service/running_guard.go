package service

import (
	"context"
	"sync"
)

// ExportedRunningGuard lets the _test package drive the guard directly.
type ExportedRunningGuard = runningGuard

// runningGuard ensures only one run of a given saved search is in flight.
// A cron tick that fires while the previous run is still going is skipped.
// Each run owns a done channel that Unlock closes.
type runningGuard struct {
	mu   sync.Mutex
	runs map[string]chan struct{}
}

// TryLock marks name as running. Returns false if it already is.
func (g *runningGuard) TryLock(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.runs[name]; busy {
		return false
	}
	if g.runs == nil {
		g.runs = make(map[string]chan struct{})
	}
	g.runs[name] = make(chan struct{})
	return true
}

// Unlock releases name. Unlocking a name that is not running is a no-op.
func (g *runningGuard) Unlock(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if done, ok := g.runs[name]; ok {
		close(done)
		delete(g.runs, name)
	}
}

// Running reports whether name is in flight.
func (g *runningGuard) Running(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.runs[name]
	return ok
}

// WaitAll blocks until the runs in flight at call time finish or ctx is
// done.
func (g *runningGuard) WaitAll(ctx context.Context) {
	g.mu.Lock()
	pending := make([]chan struct{}, 0, len(g.runs))
	for _, done := range g.runs {
		pending = append(pending, done)
	}
	g.mu.Unlock()

	for _, done := range pending {
		select {
		case <-done:
		case <-ctx.Done():
			return
		}
	}
}
