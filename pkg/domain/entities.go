// Package domain defines the persistent entities, value types, and typed
// errors used by the broodcore breeding-timeline engine.
package domain

import "time"

// PlanStatus enumerates the breeding plan lifecycle states.
type PlanStatus string

// Canonical plan statuses. Draft is initial, completed is terminal; the only
// legal transitions are draft->committed and committed->completed.
const (
	// PlanStatusDraft indicates a plan that is still freely editable.
	PlanStatusDraft PlanStatus = "draft"
	// PlanStatusCommitted indicates a plan whose locked cycle has been frozen.
	PlanStatusCommitted PlanStatus = "committed"
	PlanStatusCompleted PlanStatus = "completed"
)

// CycleStatus enumerates reproductive cycle states.
type CycleStatus string

// Canonical cycle statuses. Cycle records are append-only history and are
// never deleted regardless of plan outcome.
const (
	CycleStatusActive    CycleStatus = "active"
	CycleStatusCompleted CycleStatus = "completed"
)

// ConfirmationMethod is the closed set of ovulation evidence kinds. An
// unrecognised method never falls through to a default confidence tier; the
// resolver handles each variant exhaustively.
type ConfirmationMethod string

// Supported confirmation methods.
const (
	// MethodDirectTest is hormonal/progesterone confirmation of ovulation.
	MethodDirectTest ConfirmationMethod = "direct_test"
	// MethodBirthCalculated is back-calculation from an actual birth date.
	MethodBirthCalculated ConfirmationMethod = "birth_calculated"
	MethodNone            ConfirmationMethod = "none"
)

// ConfidenceTier grades the strength of a resolved ovulation estimate.
type ConfidenceTier string

// Confidence tiers for individual data points.
const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceNone   ConfidenceTier = "none"
)

// OverallConfidence grades an aggregate pattern-analysis result.
type OverallConfidence string

// Aggregate confidence grades produced by the analysis engine.
const (
	OverallConfidenceHigh   OverallConfidence = "high"
	OverallConfidenceMedium OverallConfidence = "medium"
	OverallConfidenceLow    OverallConfidence = "low"
)

// PatternClassification is a female's ovulation-timing tendency relative to
// her species default offset.
type PatternClassification string

// Pattern classifications.
const (
	ClassificationEarly            PatternClassification = "early_ovulator"
	ClassificationAverage          PatternClassification = "average_ovulator"
	ClassificationLate             PatternClassification = "late_ovulator"
	ClassificationInsufficientData PatternClassification = "insufficient_data"
)

// EntityType identifies the type of record stored by the engine.
type EntityType string

// Supported entity type identifiers used in audit records and persistence buckets.
const (
	// EntityBreedingPlan identifies a breeding plan record.
	EntityBreedingPlan EntityType = "breeding_plan"
	// EntityReproductiveCycle identifies a reproductive cycle record.
	EntityReproductiveCycle EntityType = "reproductive_cycle"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SpeciesProfile holds the biological defaults and window tolerances for one
// species. Profiles are immutable at runtime; changing defaults means
// deploying a new registry version, never editing a profile read by in-flight
// computations.
type SpeciesProfile struct {
	Species             string `json:"species" yaml:"species"`
	CycleLengthDays     int    `json:"cycle_length_days" yaml:"cycle_length_days"`
	OvulationOffsetDays int    `json:"ovulation_offset_days" yaml:"ovulation_offset_days"`
	GestationLengthDays int    `json:"gestation_length_days" yaml:"gestation_length_days"`
	CareDurationDays    int    `json:"care_duration_days" yaml:"care_duration_days"`

	// Window tolerances expressing natural biological variance. Kept on the
	// profile so they version together with the defaults they widen.
	OvulationToleranceDays  int `json:"ovulation_tolerance_days" yaml:"ovulation_tolerance_days"`
	FertileWindowDays       int `json:"fertile_window_days" yaml:"fertile_window_days"`
	GestationVarianceDays   int `json:"gestation_variance_days" yaml:"gestation_variance_days"`
	SocializationBufferDays int `json:"socialization_buffer_days" yaml:"socialization_buffer_days"`
	GoHomeSpreadDays        int `json:"go_home_spread_days" yaml:"go_home_spread_days"`
}

// DateWindow brackets a projected milestone with its most likely date.
type DateWindow struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	MostLikely time.Time `json:"most_likely"`
}

// Milestones is the full set of projected windows for one observed cycle
// start. Produced by the milestone calculator; frozen into a LockedCycle at
// commit time.
type Milestones struct {
	OvulationWindow DateWindow `json:"ovulation_window"`
	BreedingWindow  DateWindow `json:"breeding_window"`
	DueDateWindow   DateWindow `json:"due_date_window"`
	CareWindow      DateWindow `json:"care_window"`
	GoHomeWindow    DateWindow `json:"go_home_window"`
}

// LockedCycle is the immutable snapshot of computed milestones captured at
// the moment a plan is committed. Fields never change after creation, even if
// species defaults are later edited; this is the system's central guarantee.
type LockedCycle struct {
	CycleStart      time.Time  `json:"cycle_start"`
	OvulationWindow DateWindow `json:"ovulation_window"`
	BreedingWindow  DateWindow `json:"breeding_window"`
	DueDateWindow   DateWindow `json:"due_date_window"`
	CareWindow      DateWindow `json:"care_window"`
	GoHomeWindow    DateWindow `json:"go_home_window"`
	RegistryVersion string     `json:"registry_version"`
	CommittedAt     time.Time  `json:"committed_at"`
}

// ReproductiveCycle is one entry in a female's permanent reproductive
// history. Created when a heat onset is logged or a plan commits, updated as
// evidence arrives, never deleted.
type ReproductiveCycle struct {
	Base
	FemaleID        string             `json:"female_id"`
	Species         string             `json:"species"`
	CycleStart      time.Time          `json:"cycle_start"`
	Ovulation       *time.Time         `json:"ovulation,omitempty"`
	OvulationMethod ConfirmationMethod `json:"ovulation_method"`
	Status          CycleStatus        `json:"status"`
	PlanID          *string            `json:"plan_id,omitempty"`
}

// BreedingPlan tracks one intended breeding from draft through committed
// projections to a recorded birth.
type BreedingPlan struct {
	Base
	DamID   string  `json:"dam_id"`
	SireID  *string `json:"sire_id,omitempty"`
	Species string  `json:"species"`

	Status PlanStatus `json:"status"`

	CycleStartObserved       *time.Time         `json:"cycle_start_observed,omitempty"`
	OvulationConfirmed       *time.Time         `json:"ovulation_confirmed,omitempty"`
	OvulationConfirmedMethod ConfirmationMethod `json:"ovulation_confirmed_method"`

	BirthDateActual *time.Time `json:"birth_date_actual,omitempty"`
	BirthOutcome    *string    `json:"birth_outcome,omitempty"`

	// ExpectedOvulationOffsetDays is the species default captured at commit
	// time for audit; ActualOvulationOffsetDays is derived once ovulation is
	// resolved.
	ExpectedOvulationOffsetDays *int `json:"expected_ovulation_offset_days,omitempty"`
	ActualOvulationOffsetDays   *int `json:"actual_ovulation_offset_days,omitempty"`

	LockedCycle *LockedCycle `json:"locked_cycle,omitempty"`
}

// AuditEvent records one plan state transition. Events are write-once and
// append-only from the engine's perspective.
type AuditEvent struct {
	PlanID      string       `json:"plan_id"`
	FromStatus  PlanStatus   `json:"from_status"`
	ToStatus    PlanStatus   `json:"to_status"`
	ActorID     string       `json:"actor_id"`
	Timestamp   time.Time    `json:"timestamp"`
	LockedCycle *LockedCycle `json:"locked_cycle,omitempty"`
}

// CloneLockedCycle returns an independent copy of a locked cycle pointer.
func CloneLockedCycle(lc *LockedCycle) *LockedCycle {
	if lc == nil {
		return nil
	}
	cp := *lc
	return &cp
}

// ClonePlan returns a deep copy of a breeding plan.
func ClonePlan(p BreedingPlan) BreedingPlan {
	cp := p
	cp.SireID = cloneStringPtr(p.SireID)
	cp.CycleStartObserved = cloneTimePtr(p.CycleStartObserved)
	cp.OvulationConfirmed = cloneTimePtr(p.OvulationConfirmed)
	cp.BirthDateActual = cloneTimePtr(p.BirthDateActual)
	cp.BirthOutcome = cloneStringPtr(p.BirthOutcome)
	cp.ExpectedOvulationOffsetDays = cloneIntPtr(p.ExpectedOvulationOffsetDays)
	cp.ActualOvulationOffsetDays = cloneIntPtr(p.ActualOvulationOffsetDays)
	cp.LockedCycle = CloneLockedCycle(p.LockedCycle)
	return cp
}

// CloneCycle returns a deep copy of a reproductive cycle.
func CloneCycle(c ReproductiveCycle) ReproductiveCycle {
	cp := c
	cp.Ovulation = cloneTimePtr(c.Ovulation)
	cp.PlanID = cloneStringPtr(c.PlanID)
	return cp
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneIntPtr(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
