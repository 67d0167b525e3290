package audit

import (
	"context"
	"testing"
	"time"

	"broodcore/pkg/domain"
)

func TestLogRecordAndQuery(t *testing.T) {
	log := NewLog()
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	locked := &domain.LockedCycle{RegistryVersion: "builtin-v1", CommittedAt: at}
	if err := log.Record(ctx, domain.AuditEvent{PlanID: "p1", FromStatus: domain.PlanStatusDraft, ToStatus: domain.PlanStatusCommitted, ActorID: "tech-1", Timestamp: at, LockedCycle: locked}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := log.Record(ctx, domain.AuditEvent{PlanID: "p2", FromStatus: domain.PlanStatusDraft, ToStatus: domain.PlanStatusCommitted, ActorID: "tech-2", Timestamp: at}); err != nil {
		t.Fatalf("record: %v", err)
	}

	// Mutating the caller's copy must not alter recorded history.
	locked.RegistryVersion = "tampered"

	events := log.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events got %d", len(events))
	}
	if events[0].LockedCycle.RegistryVersion != "builtin-v1" {
		t.Fatalf("recorded locked cycle mutated: %+v", events[0].LockedCycle)
	}

	byPlan := log.ByPlan("p1")
	if len(byPlan) != 1 || byPlan[0].ActorID != "tech-1" {
		t.Fatalf("unexpected plan events %+v", byPlan)
	}

	// Returned slices are copies.
	events[1].PlanID = "rewritten"
	if log.Events()[1].PlanID != "p2" {
		t.Fatalf("events slice not isolated")
	}
}
