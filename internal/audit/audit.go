package audit

import (
	"context"
	"log/slog"
	"sync"
)

// Event types recorded during a plan run.
const (
	PlanRejected = "plan_rejected"
	PlanStarted  = "plan_started"
	PlanFinished = "plan_finished"
	StepStarted  = "step_started"
	StepOK       = "step_ok"
	StepFailed   = "step_failed"
	StepSkipped  = "step_skipped"
	CacheHit     = "cache_hit"
	GuardDenied  = "guard_denied"
)

// Event is an audit entry for plan runs, steps and guards.
type Event struct {
	// Type describes the event kind.
	Type string
	// RunID links events of one plan run.
	RunID string
	// StepID is the step the event refers to.
	StepID string
	// Tool is the tool name.
	Tool string
	// Status is the step status, when known.
	Status string
	// Reason provides additional context.
	Reason string
}

// Logger records audit events.
type Logger interface {
	// Record stores an audit event.
	Record(ctx context.Context, event Event)
}

// StdLogger writes audit events to slog.
type StdLogger struct {
	logger *slog.Logger
}

// New returns a StdLogger.
func New(logger *slog.Logger) *StdLogger {
	return &StdLogger{logger: logger}
}

// Record logs an audit event.
func (l *StdLogger) Record(ctx context.Context, event Event) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.InfoContext(ctx, "audit",
		"type", event.Type,
		"run_id", event.RunID,
		"step_id", event.StepID,
		"tool", event.Tool,
		"status", event.Status,
		"reason", event.Reason,
	)
}

// Memory keeps events in memory. Tests use it to assert on run history.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

// Record appends an event.
func (m *Memory) Record(_ context.Context, event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Events returns a copy of recorded events.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// OfType returns recorded events of the given type.
func (m *Memory) OfType(eventType string) []Event {
	var out []Event
	for _, event := range m.Events() {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}
