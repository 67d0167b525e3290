package domain

import "context"

// PlanStore is the persistence collaborator consumed by the lifecycle
// controller. Implementations must provide compare-and-set semantics for
// TransitionPlan: the status check, the applied mutation, and the status
// write are one atomic conditional write against the backing store.
type PlanStore interface {
	CreatePlan(ctx context.Context, plan BreedingPlan) (BreedingPlan, error)
	GetPlan(id string) (BreedingPlan, bool)
	// UpdatePlan applies mutator to an existing plan. Implementations must
	// reject mutations that touch Status or LockedCycle; those fields change
	// only through TransitionPlan.
	UpdatePlan(ctx context.Context, id string, mutator func(*BreedingPlan) error) (BreedingPlan, error)
	// TransitionPlan atomically moves a plan from one status to another,
	// applying the supplied mutation in the same write. When the persisted
	// status no longer equals from, it fails with ConcurrentModificationError
	// and leaves the record untouched.
	TransitionPlan(ctx context.Context, id string, from, to PlanStatus, apply func(*BreedingPlan) error) (BreedingPlan, error)
	ListPlansByDam(damID string) []BreedingPlan

	CreateCycle(ctx context.Context, cycle ReproductiveCycle) (ReproductiveCycle, error)
	GetCycle(id string) (ReproductiveCycle, bool)
	UpdateCycle(ctx context.Context, id string, mutator func(*ReproductiveCycle) error) (ReproductiveCycle, error)
	ListCyclesByFemale(femaleID string) []ReproductiveCycle
}

// AuditSink records plan state transitions. Implementations are append-only
// from the engine's perspective.
type AuditSink interface {
	Record(ctx context.Context, event AuditEvent) error
}
