// Package audit records breeding-plan state transitions as an append-only
// event stream.
package audit

import (
	"context"
	"sync"

	"broodcore/pkg/domain"
)

// Log is an in-memory append-only audit sink. Events are retained for the
// lifetime of the process and readable in insertion order.
type Log struct {
	mu     sync.RWMutex
	events []domain.AuditEvent
}

// NewLog constructs an empty audit log.
func NewLog() *Log {
	return &Log{}
}

// Record appends the event. The locked cycle payload is cloned so later
// mutations by the caller cannot rewrite history.
func (l *Log) Record(_ context.Context, event domain.AuditEvent) error {
	event.LockedCycle = domain.CloneLockedCycle(event.LockedCycle)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

// Events returns a copy of all recorded events in insertion order.
func (l *Log) Events() []domain.AuditEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.AuditEvent, len(l.events))
	for i, ev := range l.events {
		ev.LockedCycle = domain.CloneLockedCycle(ev.LockedCycle)
		out[i] = ev
	}
	return out
}

// ByPlan returns the events recorded for a single plan, in insertion order.
func (l *Log) ByPlan(planID string) []domain.AuditEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []domain.AuditEvent
	for _, ev := range l.events {
		if ev.PlanID != planID {
			continue
		}
		ev.LockedCycle = domain.CloneLockedCycle(ev.LockedCycle)
		out = append(out, ev)
	}
	return out
}

var _ domain.AuditSink = (*Log)(nil)
