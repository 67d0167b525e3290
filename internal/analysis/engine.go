// Package analysis implements the cycle pattern analysis engine: a
// confidence-weighted statistical classification of one female's ovulation
// timing across her resolved reproductive history. Analysis is read-only and
// side-effect-free; it is safe to recompute on every call.
package analysis

import (
	"fmt"
	"math"

	"broodcore/internal/registry"
	"broodcore/pkg/domain"
)

// DataPoint is one resolved ovulation offset with its confidence tier.
// Points with confidence NONE never reach the engine; callers discard them
// when gathering history.
type DataPoint struct {
	OffsetDays int
	Confidence domain.ConfidenceTier
}

// Report is the outcome of analysing one female's offset history.
type Report struct {
	FemaleID          string                       `json:"female_id"`
	Species           string                       `json:"species"`
	DataPoints        int                          `json:"data_points"`
	MeanOffsetDays    float64                      `json:"mean_offset_days"`
	StdDevDays        float64                      `json:"std_dev_days"`
	DefaultOffsetDays int                          `json:"default_offset_days"`
	Classification    domain.PatternClassification `json:"classification"`
	OverallConfidence domain.OverallConfidence     `json:"overall_confidence"`
	Guidance          string                       `json:"guidance"`
}

// Analyze classifies a female's ovulation tendency from her resolved offset
// history. Below the configured minimum sample size it returns a report
// classified INSUFFICIENT_DATA together with a typed InsufficientDataError;
// no statistics are computed in that case.
func Analyze(femaleID string, points []DataPoint, profile domain.SpeciesProfile, cfg registry.AnalysisConfig) (Report, error) {
	report := Report{
		FemaleID:          femaleID,
		Species:           profile.Species,
		DataPoints:        len(points),
		DefaultOffsetDays: profile.OvulationOffsetDays,
	}
	if len(points) < cfg.MinSamples {
		report.Classification = domain.ClassificationInsufficientData
		report.Guidance = fmt.Sprintf(
			"Only %d confirmed ovulation record(s) on file; %d are needed before a reliable pattern can be established. Continue logging heat onsets and confirmations.",
			len(points), cfg.MinSamples)
		return report, domain.InsufficientDataError{FemaleID: femaleID, Points: len(points), Required: cfg.MinSamples}
	}

	mean, stdDev := offsetStatistics(points)
	report.MeanOffsetDays = mean
	report.StdDevDays = stdDev
	report.Classification = classify(mean, profile.OvulationOffsetDays, cfg.ClassificationThresholdDays)
	report.OverallConfidence = gradeConfidence(points, stdDev, cfg)
	report.Guidance = guidance(report, cfg)
	return report, nil
}

// offsetStatistics returns the arithmetic mean and population standard
// deviation of the offsets.
func offsetStatistics(points []DataPoint) (mean, stdDev float64) {
	var sum float64
	for _, p := range points {
		sum += float64(p.OffsetDays)
	}
	mean = sum / float64(len(points))

	var sq float64
	for _, p := range points {
		d := float64(p.OffsetDays) - mean
		sq += d * d
	}
	stdDev = math.Sqrt(sq / float64(len(points)))
	return mean, stdDev
}

func classify(mean float64, defaultOffset int, threshold float64) domain.PatternClassification {
	switch {
	case mean < float64(defaultOffset)-threshold:
		return domain.ClassificationEarly
	case mean > float64(defaultOffset)+threshold:
		return domain.ClassificationLate
	default:
		return domain.ClassificationAverage
	}
}

func gradeConfidence(points []DataPoint, stdDev float64, cfg registry.AnalysisConfig) domain.OverallConfidence {
	var high, medium int
	for _, p := range points {
		switch p.Confidence {
		case domain.ConfidenceHigh:
			high++
		case domain.ConfidenceMedium:
			medium++
		}
	}
	switch {
	case stdDev > cfg.HighVarianceDays:
		return domain.OverallConfidenceLow
	case medium > high:
		return domain.OverallConfidenceLow
	case high > medium && stdDev <= cfg.VarianceThresholdDays:
		return domain.OverallConfidenceHigh
	default:
		return domain.OverallConfidenceMedium
	}
}

func guidance(r Report, cfg registry.AnalysisConfig) string {
	meanDay := int(math.Round(r.MeanOffsetDays))
	monitorDay := meanDay - cfg.MonitoringLeadDays
	if monitorDay < 1 {
		monitorDay = 1
	}
	deviation := r.MeanOffsetDays - float64(r.DefaultOffsetDays)

	var tendency string
	switch r.Classification {
	case domain.ClassificationEarly:
		tendency = fmt.Sprintf("%.1f days earlier than the %s average of Day %d", -deviation, r.Species, r.DefaultOffsetDays)
	case domain.ClassificationLate:
		tendency = fmt.Sprintf("%.1f days later than the %s average of Day %d", deviation, r.Species, r.DefaultOffsetDays)
	default:
		tendency = fmt.Sprintf("in line with the %s average of Day %d", r.Species, r.DefaultOffsetDays)
	}
	return fmt.Sprintf(
		"This female typically ovulates around Day %d of her cycle (±%.1f days), %s. Begin ovulation monitoring by Day %d of her next cycle.",
		meanDay, r.StdDevDays, tendency, monitorDay)
}
