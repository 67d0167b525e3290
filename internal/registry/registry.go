// Package registry provides the versioned biological rules registry: species
// profiles plus the analysis thresholds that accompany them. A registry is
// immutable once constructed; deployments swap in a new version rather than
// editing profiles read by in-flight computations.
package registry

import (
	"sort"
	"strings"

	"broodcore/pkg/domain"
)

// AnalysisConfig holds the named threshold constants consumed by the cycle
// pattern analysis engine. They live beside the species profiles so a
// classification can always be explained by the registry version that
// produced it.
type AnalysisConfig struct {
	// MinSamples is the minimum number of resolvable data points required
	// before any statistics are computed.
	MinSamples int `yaml:"min_samples"`
	// ClassificationThresholdDays is the band around the species default
	// offset that still counts as an average ovulator.
	ClassificationThresholdDays float64 `yaml:"classification_threshold_days"`
	// VarianceThresholdDays is the population standard deviation below which
	// a high-confidence-majority sample earns overall HIGH confidence.
	VarianceThresholdDays float64 `yaml:"variance_threshold_days"`
	// HighVarianceDays is the standard deviation above which a sample is
	// graded LOW regardless of its confidence mix.
	HighVarianceDays float64 `yaml:"high_variance_days"`
	// MonitoringLeadDays is subtracted from the mean offset to suggest a
	// monitoring start day in guidance text.
	MonitoringLeadDays int `yaml:"monitoring_lead_days"`
}

// DefaultAnalysisConfig returns the stock analysis thresholds.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		MinSamples:                  3,
		ClassificationThresholdDays: 1.5,
		VarianceThresholdDays:       1.5,
		HighVarianceDays:            3.0,
		MonitoringLeadDays:          3,
	}
}

// Registry is an immutable, versioned lookup of species profiles.
type Registry struct {
	version  string
	profiles map[string]domain.SpeciesProfile
	analysis AnalysisConfig
}

// New constructs a registry from the supplied profiles. Species keys are
// normalised to lower case; later duplicates replace earlier ones.
func New(version string, analysis AnalysisConfig, profiles ...domain.SpeciesProfile) *Registry {
	m := make(map[string]domain.SpeciesProfile, len(profiles))
	for _, p := range profiles {
		m[normalizeSpecies(p.Species)] = p
	}
	return &Registry{version: version, profiles: m, analysis: analysis}
}

// Builtin returns the stock registry shipped with the engine.
func Builtin() *Registry {
	return New("builtin-v1", DefaultAnalysisConfig(), builtinProfiles()...)
}

// Version identifies this rule set. Locked cycles carry it so historical
// projections remain explainable after defaults evolve.
func (r *Registry) Version() string { return r.version }

// Analysis returns the threshold constants for pattern analysis.
func (r *Registry) Analysis() AnalysisConfig { return r.analysis }

// Defaults returns the profile for a species, failing with
// UnknownSpeciesError when absent. The returned profile is a copy.
func (r *Registry) Defaults(species string) (domain.SpeciesProfile, error) {
	p, ok := r.profiles[normalizeSpecies(species)]
	if !ok {
		return domain.SpeciesProfile{}, domain.UnknownSpeciesError{Species: species}
	}
	return p, nil
}

// Species lists the registered species names in sorted order.
func (r *Registry) Species() []string {
	out := make([]string, 0, len(r.profiles))
	for k := range r.profiles {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func normalizeSpecies(species string) string {
	return strings.ToLower(strings.TrimSpace(species))
}

func builtinProfiles() []domain.SpeciesProfile {
	return []domain.SpeciesProfile{
		{
			Species:                 "dog",
			CycleLengthDays:         21,
			OvulationOffsetDays:     12,
			GestationLengthDays:     63,
			CareDurationDays:        56,
			OvulationToleranceDays:  2,
			FertileWindowDays:       2,
			GestationVarianceDays:   2,
			SocializationBufferDays: 7,
			GoHomeSpreadDays:        7,
		},
		{
			Species:                 "cat",
			CycleLengthDays:         14,
			OvulationOffsetDays:     4,
			GestationLengthDays:     64,
			CareDurationDays:        56,
			OvulationToleranceDays:  2,
			FertileWindowDays:       3,
			GestationVarianceDays:   3,
			SocializationBufferDays: 14,
			GoHomeSpreadDays:        7,
		},
		{
			Species:                 "rabbit",
			CycleLengthDays:         16,
			OvulationOffsetDays:     1,
			GestationLengthDays:     31,
			CareDurationDays:        42,
			OvulationToleranceDays:  1,
			FertileWindowDays:       1,
			GestationVarianceDays:   2,
			SocializationBufferDays: 7,
			GoHomeSpreadDays:        5,
		},
	}
}
