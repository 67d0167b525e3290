// Package timeline implements the milestone calculator: a pure projection of
// breeding milestones from an observed cycle start and a species profile.
// Identical inputs always produce identical outputs, independent of
// wall-clock time or call order.
package timeline

import (
	"time"

	"broodcore/pkg/domain"
)

// ComputeExpectedMilestones projects the full milestone set for one observed
// cycle start. Dates are normalised to UTC midnight so callers in different
// zones reproduce the same projections.
//
// The due-date window anchors on the most likely ovulation date plus the
// species gestation length; projections from cycle start alone would shift
// for early and late ovulators.
func ComputeExpectedMilestones(cycleStart time.Time, profile domain.SpeciesProfile) domain.Milestones {
	start := NormalizeDate(cycleStart)

	ovulation := start.AddDate(0, 0, profile.OvulationOffsetDays)
	ovulationWindow := domain.DateWindow{
		Start:      ovulation.AddDate(0, 0, -profile.OvulationToleranceDays),
		End:        ovulation.AddDate(0, 0, profile.OvulationToleranceDays),
		MostLikely: ovulation,
	}

	breedingWindow := domain.DateWindow{
		Start:      ovulation.AddDate(0, 0, -profile.FertileWindowDays),
		End:        ovulation.AddDate(0, 0, profile.FertileWindowDays),
		MostLikely: ovulation,
	}

	due := ovulation.AddDate(0, 0, profile.GestationLengthDays)
	dueDateWindow := domain.DateWindow{
		Start:      due.AddDate(0, 0, -profile.GestationVarianceDays),
		End:        due.AddDate(0, 0, profile.GestationVarianceDays),
		MostLikely: due,
	}

	careWindow := domain.DateWindow{
		Start:      due,
		End:        due.AddDate(0, 0, profile.CareDurationDays),
		MostLikely: due,
	}

	goHomeStart := careWindow.End.AddDate(0, 0, profile.SocializationBufferDays)
	goHomeWindow := domain.DateWindow{
		Start:      goHomeStart,
		End:        goHomeStart.AddDate(0, 0, profile.GoHomeSpreadDays),
		MostLikely: goHomeStart,
	}

	return domain.Milestones{
		OvulationWindow: ovulationWindow,
		BreedingWindow:  breedingWindow,
		DueDateWindow:   dueDateWindow,
		CareWindow:      careWindow,
		GoHomeWindow:    goHomeWindow,
	}
}

// NormalizeDate truncates a timestamp to UTC midnight.
func NormalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole number of days from one date to another
// after both are normalised to UTC midnight.
func DaysBetween(from, to time.Time) int {
	return int(NormalizeDate(to).Sub(NormalizeDate(from)).Hours() / 24)
}
