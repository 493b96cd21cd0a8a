package service

import (
	"context"
	"sync"

	"ihaboard/internal/logger"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: services publish, observers listen
// ─────────────────────────────────────────────────────────────

// Event names emitted by SearchService.
const (
	EventSearchCompleted = "search:completed"
	EventMappingReloaded = "mapping:reloaded"
	EventScheduleFailed  = "schedule:failed"
)

// EventEmitter is an interface for publishing service events.
// Services receive this interface instead of a concrete sink,
// which makes them independently testable with a mock emitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// LogEmitter writes every event to the structured log.
type LogEmitter struct{}

func (LogEmitter) Emit(_ context.Context, event string, data any) {
	logger.Named("events").Infow(event, "data", data)
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Named returns the recorded events called event.
func (m *MockEmitter) Named(event string) []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EmittedEvent
	for _, e := range m.Events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
