// Package archive persists committed locked-cycle snapshots and their audit
// events to blob storage, giving each committed plan a durable record that
// survives the primary store.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"broodcore/internal/blob"
	"broodcore/pkg/domain"
)

// Archiver writes plan snapshots into a blob store under
// plans/<plan_id>/locked_cycle.json and plans/<plan_id>/audit/<ts>.json.
type Archiver struct {
	store blob.Store
}

// New constructs an archiver over the given blob store.
func New(store blob.Store) *Archiver {
	return &Archiver{store: store}
}

// ArchiveCommit stores the frozen locked cycle and the commit audit event for
// a newly committed plan.
func (a *Archiver) ArchiveCommit(ctx context.Context, plan domain.BreedingPlan, event domain.AuditEvent) error {
	if plan.LockedCycle == nil {
		return fmt.Errorf("plan %s has no locked cycle to archive", plan.ID)
	}
	if err := a.putJSON(ctx, lockedCycleKey(plan.ID), plan.LockedCycle); err != nil {
		return fmt.Errorf("archive locked cycle: %w", err)
	}
	return a.ArchiveEvent(ctx, event)
}

// ArchiveEvent stores a single audit event under the plan's audit prefix.
func (a *Archiver) ArchiveEvent(ctx context.Context, event domain.AuditEvent) error {
	key := auditKey(event.PlanID, event)
	if err := a.putJSON(ctx, key, event); err != nil {
		return fmt.Errorf("archive audit event: %w", err)
	}
	return nil
}

// LockedCycle reads back an archived locked cycle.
func (a *Archiver) LockedCycle(ctx context.Context, planID string) (domain.LockedCycle, error) {
	rc, _, err := a.store.Get(ctx, lockedCycleKey(planID))
	if err != nil {
		return domain.LockedCycle{}, err
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return domain.LockedCycle{}, err
	}
	var lc domain.LockedCycle
	if err := json.Unmarshal(data, &lc); err != nil {
		return domain.LockedCycle{}, fmt.Errorf("decode archived locked cycle: %w", err)
	}
	return lc, nil
}

// Events lists the archived audit event keys for a plan, sorted by key (and
// therefore by timestamp).
func (a *Archiver) Events(ctx context.Context, planID string) ([]blob.Info, error) {
	return a.store.List(ctx, path.Join("plans", planID, "audit")+"/")
}

func (a *Archiver) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = a.store.Put(ctx, key, bytes.NewReader(data))
	return err
}

func lockedCycleKey(planID string) string {
	return path.Join("plans", planID, "locked_cycle.json")
}

func auditKey(planID string, event domain.AuditEvent) string {
	name := fmt.Sprintf("%s_%s_to_%s.json", event.Timestamp.UTC().Format("20060102T150405.000000000Z"), event.FromStatus, event.ToStatus)
	return path.Join("plans", planID, "audit", name)
}
