// Package memory provides an in-memory implementation of the plan store used
// for tests and ephemeral environments. The durable sqlite and postgres
// stores embed it and snapshot its state after successful mutations.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"broodcore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PlanStore = (*Store)(nil)

type (
	// BreedingPlan aliases domain.BreedingPlan for in-memory persistence operations.
	BreedingPlan = domain.BreedingPlan
	// ReproductiveCycle aliases domain.ReproductiveCycle.
	ReproductiveCycle = domain.ReproductiveCycle
	// PlanStatus aliases domain.PlanStatus.
	PlanStatus = domain.PlanStatus
)

type memoryState struct {
	plans  map[string]BreedingPlan
	cycles map[string]ReproductiveCycle
}

func newMemoryState() memoryState {
	return memoryState{
		plans:  make(map[string]BreedingPlan),
		cycles: make(map[string]ReproductiveCycle),
	}
}

// Snapshot captures a point-in-time clone of the store state for external
// persistence.
type Snapshot struct {
	Plans  map[string]BreedingPlan      `json:"plans"`
	Cycles map[string]ReproductiveCycle `json:"cycles"`
}

// Store provides a mutex-guarded in-memory plan store. The TransitionPlan
// compare-and-set primitive is the single concurrency guarantee higher layers
// rely on: the status check and the conditional write happen under one lock.
type Store struct {
	mu    sync.RWMutex
	state memoryState
	nowFn func() time.Time
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{
		state: newMemoryState(),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the store clock. Intended for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Plans:  make(map[string]BreedingPlan, len(s.state.plans)),
		Cycles: make(map[string]ReproductiveCycle, len(s.state.cycles)),
	}
	for k, v := range s.state.plans {
		snap.Plans[k] = domain.ClonePlan(v)
	}
	for k, v := range s.state.cycles {
		snap.Cycles[k] = domain.CloneCycle(v)
	}
	return snap
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := newMemoryState()
	for k, v := range snap.Plans {
		state.plans[k] = domain.ClonePlan(v)
	}
	for k, v := range snap.Cycles {
		state.cycles[k] = domain.CloneCycle(v)
	}
	s.state = state
}

// CreatePlan stores a new plan in DRAFT status.
func (s *Store) CreatePlan(_ context.Context, plan BreedingPlan) (BreedingPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if plan.ID == "" {
		plan.ID = s.newID()
	}
	if _, exists := s.state.plans[plan.ID]; exists {
		return BreedingPlan{}, fmt.Errorf("breeding plan %q already exists", plan.ID)
	}
	now := s.nowFn()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	if plan.Status == "" {
		plan.Status = domain.PlanStatusDraft
	}
	if plan.OvulationConfirmedMethod == "" {
		plan.OvulationConfirmedMethod = domain.MethodNone
	}
	s.state.plans[plan.ID] = domain.ClonePlan(plan)
	return domain.ClonePlan(plan), nil
}

// GetPlan retrieves a plan by ID.
func (s *Store) GetPlan(id string) (BreedingPlan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.plans[id]
	if !ok {
		return BreedingPlan{}, false
	}
	return domain.ClonePlan(p), true
}

// UpdatePlan applies mutator to an existing plan. Mutations that touch Status
// or LockedCycle are rejected here as well as at the controller boundary so
// the immutability invariant cannot be bypassed by any caller.
func (s *Store) UpdatePlan(_ context.Context, id string, mutator func(*BreedingPlan) error) (BreedingPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.state.plans[id]
	if !ok {
		return BreedingPlan{}, domain.NotFoundError{Entity: domain.EntityBreedingPlan, ID: id}
	}
	updated := domain.ClonePlan(current)
	if err := mutator(&updated); err != nil {
		return BreedingPlan{}, err
	}
	if updated.Status != current.Status {
		return BreedingPlan{}, domain.InvalidStateTransitionError{PlanID: id, From: current.Status, To: updated.Status}
	}
	if lockedCycleChanged(current.LockedCycle, updated.LockedCycle) {
		return BreedingPlan{}, domain.LockedCycleImmutableError{PlanID: id}
	}
	updated.ID = id
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = s.nowFn()
	s.state.plans[id] = domain.ClonePlan(updated)
	return domain.ClonePlan(updated), nil
}

// TransitionPlan atomically moves a plan between statuses, applying the
// supplied mutation in the same conditional write. The loser of a race
// observes a status that no longer matches and fails with
// ConcurrentModificationError, leaving state exactly as the winner set it.
func (s *Store) TransitionPlan(_ context.Context, id string, from, to PlanStatus, apply func(*BreedingPlan) error) (BreedingPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.state.plans[id]
	if !ok {
		return BreedingPlan{}, domain.NotFoundError{Entity: domain.EntityBreedingPlan, ID: id}
	}
	if current.Status != from {
		return BreedingPlan{}, domain.ConcurrentModificationError{PlanID: id, Expected: from, Found: current.Status}
	}
	updated := domain.ClonePlan(current)
	if apply != nil {
		if err := apply(&updated); err != nil {
			return BreedingPlan{}, err
		}
	}
	updated.ID = id
	updated.CreatedAt = current.CreatedAt
	updated.Status = to
	updated.UpdatedAt = s.nowFn()
	s.state.plans[id] = domain.ClonePlan(updated)
	return domain.ClonePlan(updated), nil
}

// ListPlansByDam returns all plans referencing the given dam, oldest first.
func (s *Store) ListPlansByDam(damID string) []BreedingPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []BreedingPlan
	for _, p := range s.state.plans {
		if p.DamID == damID {
			out = append(out, domain.ClonePlan(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// CreateCycle appends a new reproductive cycle record.
func (s *Store) CreateCycle(_ context.Context, cycle ReproductiveCycle) (ReproductiveCycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cycle.ID == "" {
		cycle.ID = s.newID()
	}
	if _, exists := s.state.cycles[cycle.ID]; exists {
		return ReproductiveCycle{}, fmt.Errorf("reproductive cycle %q already exists", cycle.ID)
	}
	now := s.nowFn()
	cycle.CreatedAt = now
	cycle.UpdatedAt = now
	if cycle.Status == "" {
		cycle.Status = domain.CycleStatusActive
	}
	if cycle.OvulationMethod == "" {
		cycle.OvulationMethod = domain.MethodNone
	}
	s.state.cycles[cycle.ID] = domain.CloneCycle(cycle)
	return domain.CloneCycle(cycle), nil
}

// GetCycle retrieves a cycle by ID.
func (s *Store) GetCycle(id string) (ReproductiveCycle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.cycles[id]
	if !ok {
		return ReproductiveCycle{}, false
	}
	return domain.CloneCycle(c), true
}

// UpdateCycle mutates an existing cycle record. Cycles are append-only
// history; there is deliberately no delete operation.
func (s *Store) UpdateCycle(_ context.Context, id string, mutator func(*ReproductiveCycle) error) (ReproductiveCycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.state.cycles[id]
	if !ok {
		return ReproductiveCycle{}, domain.NotFoundError{Entity: domain.EntityReproductiveCycle, ID: id}
	}
	updated := domain.CloneCycle(current)
	if err := mutator(&updated); err != nil {
		return ReproductiveCycle{}, err
	}
	updated.ID = id
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = s.nowFn()
	s.state.cycles[id] = domain.CloneCycle(updated)
	return domain.CloneCycle(updated), nil
}

// ListCyclesByFemale returns a female's full cycle history, oldest first.
func (s *Store) ListCyclesByFemale(femaleID string) []ReproductiveCycle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ReproductiveCycle
	for _, c := range s.state.cycles {
		if c.FemaleID == femaleID {
			out = append(out, domain.CloneCycle(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CycleStart.Equal(out[j].CycleStart) {
			return out[i].ID < out[j].ID
		}
		return out[i].CycleStart.Before(out[j].CycleStart)
	})
	return out
}

func lockedCycleChanged(before, after *domain.LockedCycle) bool {
	if before == nil && after == nil {
		return false
	}
	if before == nil || after == nil {
		return true
	}
	return *before != *after
}
