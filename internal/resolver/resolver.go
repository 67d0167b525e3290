// Package resolver turns whatever ovulation evidence a plan carries into a
// single ovulation date with a confidence tier. Direct hormonal confirmation
// always wins over back-calculation from a birth date.
package resolver

import (
	"time"

	"broodcore/internal/timeline"
	"broodcore/pkg/domain"
)

// Resolution is the unit consumed by pattern analysis: a resolved ovulation
// date, how it was obtained, and how much to trust it.
type Resolution struct {
	Ovulation  time.Time
	Method     domain.ConfirmationMethod
	Confidence domain.ConfidenceTier
	// OffsetDays is the number of days from the observed cycle start to the
	// resolved ovulation. Only meaningful when OffsetKnown is true (both a
	// cycle start and a resolved ovulation exist).
	OffsetDays  int
	OffsetKnown bool
}

// Resolve inspects a plan's evidence and produces a resolution. Plans with no
// usable evidence resolve to confidence NONE and contribute no data point.
func Resolve(plan domain.BreedingPlan, profile domain.SpeciesProfile) Resolution {
	res := Resolution{Method: domain.MethodNone, Confidence: domain.ConfidenceNone}

	switch plan.OvulationConfirmedMethod {
	case domain.MethodDirectTest:
		if plan.OvulationConfirmed != nil {
			res.Ovulation = timeline.NormalizeDate(*plan.OvulationConfirmed)
			res.Method = domain.MethodDirectTest
			res.Confidence = domain.ConfidenceHigh
		}
	case domain.MethodBirthCalculated, domain.MethodNone:
		// Fall through to birth back-calculation below.
	}

	if res.Confidence == domain.ConfidenceNone && plan.BirthDateActual != nil {
		// Indirect evidence: subject to natural gestation-length variance,
		// hence a lower tier than a direct test.
		res.Ovulation = timeline.NormalizeDate(*plan.BirthDateActual).AddDate(0, 0, -profile.GestationLengthDays)
		res.Method = domain.MethodBirthCalculated
		res.Confidence = domain.ConfidenceMedium
	}

	if res.Confidence != domain.ConfidenceNone && plan.CycleStartObserved != nil {
		res.OffsetDays = timeline.DaysBetween(*plan.CycleStartObserved, res.Ovulation)
		res.OffsetKnown = true
	}
	return res
}
