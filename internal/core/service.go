// Package core exposes the breeding-plan lifecycle controller: plan drafting,
// the commit transition that freezes a locked cycle, birth recording, heat
// logging, and confidence-weighted pattern analysis over a female's history.
package core

import (
	"context"
	"time"

	"broodcore/internal/analysis"
	"broodcore/internal/archive"
	"broodcore/internal/registry"
	"broodcore/internal/resolver"
	"broodcore/internal/timeline"
	"broodcore/pkg/domain"
)

// Service orchestrates the lifecycle state machine over an injected store and
// rules registry. All computation is delegated to the pure packages; the
// service owns sequencing, preconditions, and side effects (audit, archive).
type Service struct {
	store    domain.PlanStore
	registry *registry.Registry
	audit    domain.AuditSink
	archiver *archive.Archiver
	metrics  MetricsRecorder
	tracer   Tracer
	nowFn    func() time.Time
}

// Option customizes service construction.
type Option func(*Service)

// WithAuditSink routes transition events to the supplied sink.
func WithAuditSink(sink domain.AuditSink) Option {
	return func(s *Service) { s.audit = sink }
}

// WithArchiver exports committed snapshots and transition events to blob
// storage. The service works without one.
func WithArchiver(a *archive.Archiver) Option {
	return func(s *Service) { s.archiver = a }
}

// WithMetricsRecorder routes operation observations to the supplied recorder.
func WithMetricsRecorder(rec MetricsRecorder) Option {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithTracer routes operation spans to the supplied tracer.
func WithTracer(tr Tracer) Option {
	return func(s *Service) {
		if tr != nil {
			s.tracer = tr
		}
	}
}

// WithNowFunc overrides the commit timestamp source for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// NewService constructs a service backed by the supplied store and registry.
func NewService(store domain.PlanStore, reg *registry.Registry, opts ...Option) *Service {
	s := &Service{
		store:    store,
		registry: reg,
		metrics:  noopMetricsRecorder{},
		tracer:   noopTracer{},
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PlanStore {
	return s.store
}

// Registry returns the injected rules registry.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// instrument opens a span and returns a closure finalizing both the span and
// the metrics observation for the operation.
func (s *Service) instrument(ctx context.Context, operation string) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, operation)
	started := time.Now()
	return ctx, func(err error) {
		s.metrics.Observe(ctx, operation, err == nil, time.Since(started))
		span.End(err)
	}
}

// CreatePlan persists a new draft plan. Species must be known to the registry
// up front so an unknown species can never reach commit.
func (s *Service) CreatePlan(ctx context.Context, plan domain.BreedingPlan) (created domain.BreedingPlan, err error) {
	ctx, done := s.instrument(ctx, "create_plan")
	defer func() { done(err) }()

	if plan.DamID == "" {
		return domain.BreedingPlan{}, domain.MissingRequiredInputError{Field: "dam_id"}
	}
	if _, err = s.registry.Defaults(plan.Species); err != nil {
		return domain.BreedingPlan{}, err
	}
	plan.Status = domain.PlanStatusDraft
	plan.LockedCycle = nil
	if plan.OvulationConfirmedMethod == "" {
		plan.OvulationConfirmedMethod = domain.MethodNone
	}
	normalizePlanDates(&plan)
	created, err = s.store.CreatePlan(ctx, plan)
	return created, err
}

// GetPlan returns a plan by ID.
func (s *Service) GetPlan(id string) (domain.BreedingPlan, error) {
	plan, ok := s.store.GetPlan(id)
	if !ok {
		return domain.BreedingPlan{}, domain.NotFoundError{Entity: domain.EntityBreedingPlan, ID: id}
	}
	return plan, nil
}

// EditPlanBeforeCommit applies mutator to a draft plan. Any other status
// fails with InvalidStateTransitionError; attempts to write Status or
// LockedCycle through the mutator are additionally rejected by the store
// guard, so the immutability invariant cannot be bypassed here.
func (s *Service) EditPlanBeforeCommit(ctx context.Context, planID string, mutator func(*domain.BreedingPlan) error) (updated domain.BreedingPlan, err error) {
	ctx, done := s.instrument(ctx, "edit_plan")
	defer func() { done(err) }()

	plan, ok := s.store.GetPlan(planID)
	if !ok {
		return domain.BreedingPlan{}, domain.NotFoundError{Entity: domain.EntityBreedingPlan, ID: planID}
	}
	if plan.Status != domain.PlanStatusDraft {
		return domain.BreedingPlan{}, domain.InvalidStateTransitionError{PlanID: planID, From: plan.Status, To: plan.Status}
	}
	updated, err = s.store.UpdatePlan(ctx, planID, func(p *domain.BreedingPlan) error {
		if err := mutator(p); err != nil {
			return err
		}
		normalizePlanDates(p)
		return nil
	})
	return updated, err
}

// ComputeExpectedMilestones is the stateless preview projection, usable
// before a plan exists or before commit.
func (s *Service) ComputeExpectedMilestones(cycleStart time.Time, species string) (domain.Milestones, error) {
	profile, err := s.registry.Defaults(species)
	if err != nil {
		return domain.Milestones{}, err
	}
	return timeline.ComputeExpectedMilestones(cycleStart, profile), nil
}

// CommitPlan freezes the plan's projected milestones into an immutable
// LockedCycle and transitions draft -> committed with compare-and-set
// semantics. The loser of a concurrent commit race receives
// ConcurrentModificationError and no second locked cycle is ever written.
func (s *Service) CommitPlan(ctx context.Context, planID, actorID string) (committed domain.BreedingPlan, err error) {
	ctx, done := s.instrument(ctx, "commit_plan")
	defer func() { done(err) }()

	plan, ok := s.store.GetPlan(planID)
	if !ok {
		return domain.BreedingPlan{}, domain.NotFoundError{Entity: domain.EntityBreedingPlan, ID: planID}
	}
	if plan.Status != domain.PlanStatusDraft {
		return domain.BreedingPlan{}, domain.InvalidStateTransitionError{PlanID: planID, From: plan.Status, To: domain.PlanStatusCommitted}
	}
	if plan.CycleStartObserved == nil {
		return domain.BreedingPlan{}, domain.MissingRequiredInputError{Field: "cycle_start_observed"}
	}
	profile, err := s.registry.Defaults(plan.Species)
	if err != nil {
		return domain.BreedingPlan{}, err
	}

	cycleStart := timeline.NormalizeDate(*plan.CycleStartObserved)
	milestones := timeline.ComputeExpectedMilestones(cycleStart, profile)
	locked := domain.LockedCycle{
		CycleStart:      cycleStart,
		OvulationWindow: milestones.OvulationWindow,
		BreedingWindow:  milestones.BreedingWindow,
		DueDateWindow:   milestones.DueDateWindow,
		CareWindow:      milestones.CareWindow,
		GoHomeWindow:    milestones.GoHomeWindow,
		RegistryVersion: s.registry.Version(),
		CommittedAt:     s.nowFn().UTC(),
	}
	expectedOffset := profile.OvulationOffsetDays

	committed, err = s.store.TransitionPlan(ctx, planID, domain.PlanStatusDraft, domain.PlanStatusCommitted, func(p *domain.BreedingPlan) error {
		lc := locked
		p.LockedCycle = &lc
		p.ExpectedOvulationOffsetDays = &expectedOffset
		return nil
	})
	if err != nil {
		return domain.BreedingPlan{}, err
	}

	cycle := domain.ReproductiveCycle{
		FemaleID:        committed.DamID,
		Species:         committed.Species,
		CycleStart:      cycleStart,
		OvulationMethod: domain.MethodNone,
		Status:          domain.CycleStatusActive,
		PlanID:          &committed.ID,
	}
	if _, err = s.store.CreateCycle(ctx, cycle); err != nil {
		return domain.BreedingPlan{}, err
	}

	err = s.emitTransition(ctx, domain.AuditEvent{
		PlanID:      committed.ID,
		FromStatus:  domain.PlanStatusDraft,
		ToStatus:    domain.PlanStatusCommitted,
		ActorID:     actorID,
		Timestamp:   locked.CommittedAt,
		LockedCycle: committed.LockedCycle,
	}, &committed)
	if err != nil {
		return domain.BreedingPlan{}, err
	}
	return committed, nil
}

// RecordOvulationTest stores a direct hormonal confirmation on the plan and
// its linked cycle. Permitted while draft or committed; a completed plan
// accepts no further evidence.
func (s *Service) RecordOvulationTest(ctx context.Context, planID string, testDate time.Time) (updated domain.BreedingPlan, err error) {
	ctx, done := s.instrument(ctx, "record_ovulation_test")
	defer func() { done(err) }()

	plan, ok := s.store.GetPlan(planID)
	if !ok {
		return domain.BreedingPlan{}, domain.NotFoundError{Entity: domain.EntityBreedingPlan, ID: planID}
	}
	if plan.Status == domain.PlanStatusCompleted {
		return domain.BreedingPlan{}, domain.InvalidStateTransitionError{PlanID: planID, From: plan.Status, To: plan.Status}
	}
	day := timeline.NormalizeDate(testDate)
	updated, err = s.store.UpdatePlan(ctx, planID, func(p *domain.BreedingPlan) error {
		p.OvulationConfirmed = &day
		p.OvulationConfirmedMethod = domain.MethodDirectTest
		if p.CycleStartObserved != nil {
			offset := timeline.DaysBetween(*p.CycleStartObserved, day)
			p.ActualOvulationOffsetDays = &offset
		}
		return nil
	})
	if err != nil {
		return domain.BreedingPlan{}, err
	}
	if err = s.updateLinkedCycle(ctx, updated, day, domain.MethodDirectTest, nil); err != nil {
		return domain.BreedingPlan{}, err
	}
	return updated, nil
}

// RecordBirth stores the actual birth and performs the terminal
// committed -> completed transition, deriving the actual ovulation offset via
// the resolver and closing the linked cycle. The locked cycle is never
// touched.
func (s *Service) RecordBirth(ctx context.Context, planID string, birthDate time.Time, outcome, actorID string) (completed domain.BreedingPlan, err error) {
	ctx, done := s.instrument(ctx, "record_birth")
	defer func() { done(err) }()

	plan, ok := s.store.GetPlan(planID)
	if !ok {
		return domain.BreedingPlan{}, domain.NotFoundError{Entity: domain.EntityBreedingPlan, ID: planID}
	}
	if plan.Status != domain.PlanStatusCommitted {
		return domain.BreedingPlan{}, domain.InvalidStateTransitionError{PlanID: planID, From: plan.Status, To: domain.PlanStatusCompleted}
	}
	profile, err := s.registry.Defaults(plan.Species)
	if err != nil {
		return domain.BreedingPlan{}, err
	}

	birth := timeline.NormalizeDate(birthDate)
	var resolved resolver.Resolution
	completed, err = s.store.TransitionPlan(ctx, planID, domain.PlanStatusCommitted, domain.PlanStatusCompleted, func(p *domain.BreedingPlan) error {
		p.BirthDateActual = &birth
		p.BirthOutcome = &outcome
		resolved = resolver.Resolve(*p, profile)
		if resolved.OffsetKnown {
			offset := resolved.OffsetDays
			p.ActualOvulationOffsetDays = &offset
		}
		return nil
	})
	if err != nil {
		return domain.BreedingPlan{}, err
	}

	if resolved.Confidence != domain.ConfidenceNone {
		status := domain.CycleStatusCompleted
		if err = s.updateLinkedCycle(ctx, completed, resolved.Ovulation, resolved.Method, &status); err != nil {
			return domain.BreedingPlan{}, err
		}
	} else if err = s.closeLinkedCycle(ctx, completed); err != nil {
		return domain.BreedingPlan{}, err
	}

	err = s.emitTransition(ctx, domain.AuditEvent{
		PlanID:     completed.ID,
		FromStatus: domain.PlanStatusCommitted,
		ToStatus:   domain.PlanStatusCompleted,
		ActorID:    actorID,
		Timestamp:  s.nowFn().UTC(),
	}, nil)
	if err != nil {
		return domain.BreedingPlan{}, err
	}
	return completed, nil
}

// LogCycleStart records an observed heat onset as a standalone cycle in the
// female's permanent history.
func (s *Service) LogCycleStart(ctx context.Context, femaleID, species string, cycleStart time.Time) (created domain.ReproductiveCycle, err error) {
	ctx, done := s.instrument(ctx, "log_cycle_start")
	defer func() { done(err) }()

	if femaleID == "" {
		return domain.ReproductiveCycle{}, domain.MissingRequiredInputError{Field: "female_id"}
	}
	if _, err = s.registry.Defaults(species); err != nil {
		return domain.ReproductiveCycle{}, err
	}
	created, err = s.store.CreateCycle(ctx, domain.ReproductiveCycle{
		FemaleID:        femaleID,
		Species:         species,
		CycleStart:      timeline.NormalizeDate(cycleStart),
		OvulationMethod: domain.MethodNone,
		Status:          domain.CycleStatusActive,
	})
	return created, err
}

// ConfirmCycleOvulation records a directly observed ovulation on a standalone
// cycle and completes it.
func (s *Service) ConfirmCycleOvulation(ctx context.Context, cycleID string, ovulation time.Time) (updated domain.ReproductiveCycle, err error) {
	ctx, done := s.instrument(ctx, "confirm_cycle_ovulation")
	defer func() { done(err) }()

	day := timeline.NormalizeDate(ovulation)
	updated, err = s.store.UpdateCycle(ctx, cycleID, func(c *domain.ReproductiveCycle) error {
		c.Ovulation = &day
		c.OvulationMethod = domain.MethodDirectTest
		c.Status = domain.CycleStatusCompleted
		return nil
	})
	return updated, err
}

// CycleHistory returns the female's full reproductive history ordered by
// cycle start.
func (s *Service) CycleHistory(femaleID string) []domain.ReproductiveCycle {
	return s.store.ListCyclesByFemale(femaleID)
}

// AnalyzeFemalePattern gathers every resolvable (offset, confidence) pair
// from the female's plan history plus standalone cycles with directly
// observed ovulation, and classifies her ovulation tendency. Read-only and
// side-effect-free; safe to recompute on every call.
func (s *Service) AnalyzeFemalePattern(ctx context.Context, femaleID, species string) (report analysis.Report, err error) {
	_, done := s.instrument(ctx, "analyze_female_pattern")
	defer func() { done(err) }()

	profile, err := s.registry.Defaults(species)
	if err != nil {
		return analysis.Report{}, err
	}

	var points []analysis.DataPoint
	for _, plan := range s.store.ListPlansByDam(femaleID) {
		res := resolver.Resolve(plan, profile)
		if res.Confidence == domain.ConfidenceNone || !res.OffsetKnown {
			continue
		}
		points = append(points, analysis.DataPoint{OffsetDays: res.OffsetDays, Confidence: res.Confidence})
	}
	for _, cycle := range s.store.ListCyclesByFemale(femaleID) {
		// Plan-linked cycles contribute through their plan's resolution;
		// counting them here would double-weight the same observation.
		if cycle.PlanID != nil || cycle.Ovulation == nil {
			continue
		}
		points = append(points, analysis.DataPoint{
			OffsetDays: timeline.DaysBetween(cycle.CycleStart, *cycle.Ovulation),
			Confidence: domain.ConfidenceHigh,
		})
	}

	report, err = analysis.Analyze(femaleID, points, profile, s.registry.Analysis())
	return report, err
}

// emitTransition records the audit event and, when an archiver is wired,
// exports the snapshot. committedPlan is non-nil only for the commit
// transition.
func (s *Service) emitTransition(ctx context.Context, event domain.AuditEvent, committedPlan *domain.BreedingPlan) error {
	if s.audit != nil {
		if err := s.audit.Record(ctx, event); err != nil {
			return err
		}
	}
	if s.archiver == nil {
		return nil
	}
	if committedPlan != nil {
		return s.archiver.ArchiveCommit(ctx, *committedPlan, event)
	}
	return s.archiver.ArchiveEvent(ctx, event)
}

// updateLinkedCycle writes resolved ovulation evidence through to the cycle
// opened by the plan's commit, if one exists. A nil status leaves the cycle
// status unchanged.
func (s *Service) updateLinkedCycle(ctx context.Context, plan domain.BreedingPlan, ovulation time.Time, method domain.ConfirmationMethod, status *domain.CycleStatus) error {
	cycleID, ok := s.linkedCycleID(plan)
	if !ok {
		return nil
	}
	_, err := s.store.UpdateCycle(ctx, cycleID, func(c *domain.ReproductiveCycle) error {
		day := ovulation
		c.Ovulation = &day
		c.OvulationMethod = method
		if status != nil {
			c.Status = *status
		}
		return nil
	})
	return err
}

// closeLinkedCycle completes the plan's cycle without recording ovulation
// evidence.
func (s *Service) closeLinkedCycle(ctx context.Context, plan domain.BreedingPlan) error {
	cycleID, ok := s.linkedCycleID(plan)
	if !ok {
		return nil
	}
	_, err := s.store.UpdateCycle(ctx, cycleID, func(c *domain.ReproductiveCycle) error {
		c.Status = domain.CycleStatusCompleted
		return nil
	})
	return err
}

func (s *Service) linkedCycleID(plan domain.BreedingPlan) (string, bool) {
	for _, cycle := range s.store.ListCyclesByFemale(plan.DamID) {
		if cycle.PlanID != nil && *cycle.PlanID == plan.ID {
			return cycle.ID, true
		}
	}
	return "", false
}

func normalizePlanDates(p *domain.BreedingPlan) {
	if p.CycleStartObserved != nil {
		d := timeline.NormalizeDate(*p.CycleStartObserved)
		p.CycleStartObserved = &d
	}
	if p.OvulationConfirmed != nil {
		d := timeline.NormalizeDate(*p.OvulationConfirmed)
		p.OvulationConfirmed = &d
	}
	if p.BirthDateActual != nil {
		d := timeline.NormalizeDate(*p.BirthDateActual)
		p.BirthDateActual = &d
	}
}
