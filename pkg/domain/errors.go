package domain

import "fmt"

// UnknownSpeciesError is returned when a species has no registered profile.
// The engine never silently substitutes another species' constants.
type UnknownSpeciesError struct {
	Species string
}

func (e UnknownSpeciesError) Error() string {
	return fmt.Sprintf("unknown species %q", e.Species)
}

// MissingRequiredInputError reports a precondition field absent from a plan.
type MissingRequiredInputError struct {
	Field string
}

func (e MissingRequiredInputError) Error() string {
	return fmt.Sprintf("missing required input %s", e.Field)
}

// InvalidStateTransitionError reports an illegal lifecycle transition
// request. The plan state is left unchanged.
type InvalidStateTransitionError struct {
	PlanID string
	From   PlanStatus
	To     PlanStatus
}

func (e InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("plan %s: invalid transition %s -> %s", e.PlanID, e.From, e.To)
}

// ConcurrentModificationError reports a lost compare-and-set race: the plan's
// persisted status no longer matched the expected value at write time.
// Callers should re-read current state before deciding whether to retry.
type ConcurrentModificationError struct {
	PlanID   string
	Expected PlanStatus
	Found    PlanStatus
}

func (e ConcurrentModificationError) Error() string {
	return fmt.Sprintf("plan %s: concurrent modification (expected status %s, found %s)", e.PlanID, e.Expected, e.Found)
}

// LockedCycleImmutableError reports an attempted write to locked cycle fields
// outside of commit. It signals a caller bug, not a normal business conflict,
// and should be surfaced distinctly.
type LockedCycleImmutableError struct {
	PlanID string
}

func (e LockedCycleImmutableError) Error() string {
	return fmt.Sprintf("plan %s: locked cycle is immutable after commit", e.PlanID)
}

// InsufficientDataError reports that a female's history holds fewer
// resolvable data points than pattern analysis requires.
type InsufficientDataError struct {
	FemaleID string
	Points   int
	Required int
}

func (e InsufficientDataError) Error() string {
	return fmt.Sprintf("female %s: %d resolvable data points, %d required for pattern analysis", e.FemaleID, e.Points, e.Required)
}

// NotFoundError reports a missing record.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
