package registry

import (
	"fmt"
	"os"

	"broodcore/pkg/domain"

	"gopkg.in/yaml.v3"
)

// ProfileFile is the on-disk YAML layout for a species profile bundle.
type ProfileFile struct {
	Version  string                  `yaml:"version"`
	Analysis *AnalysisConfig         `yaml:"analysis,omitempty"`
	Profiles []domain.SpeciesProfile `yaml:"profiles"`
}

// LoadFile reads and validates a species-profile YAML bundle and returns a
// registry built from it. Analysis thresholds fall back to the stock defaults
// when the file omits them.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a species-profile YAML document into a registry.
func Parse(data []byte) (*Registry, error) {
	var file ProfileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode profile file: %w", err)
	}
	if file.Version == "" {
		return nil, fmt.Errorf("profile file missing version")
	}
	if len(file.Profiles) == 0 {
		return nil, fmt.Errorf("profile file %s declares no profiles", file.Version)
	}
	seen := make(map[string]struct{}, len(file.Profiles))
	for i, p := range file.Profiles {
		if err := ValidateProfile(p); err != nil {
			return nil, fmt.Errorf("profile %d: %w", i, err)
		}
		key := normalizeSpecies(p.Species)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("duplicate species %q", p.Species)
		}
		seen[key] = struct{}{}
	}
	analysis := DefaultAnalysisConfig()
	if file.Analysis != nil {
		analysis = *file.Analysis
		if analysis.MinSamples <= 0 {
			return nil, fmt.Errorf("analysis min_samples must be positive")
		}
	}
	return New(file.Version, analysis, file.Profiles...), nil
}

// ValidateProfile checks the structural invariants of a single profile.
func ValidateProfile(p domain.SpeciesProfile) error {
	if normalizeSpecies(p.Species) == "" {
		return fmt.Errorf("species name required")
	}
	if p.CycleLengthDays <= 0 {
		return fmt.Errorf("species %s: cycle length must be positive", p.Species)
	}
	if p.OvulationOffsetDays <= 0 || p.OvulationOffsetDays >= p.CycleLengthDays {
		return fmt.Errorf("species %s: ovulation offset must fall inside the cycle", p.Species)
	}
	if p.GestationLengthDays <= 0 {
		return fmt.Errorf("species %s: gestation length must be positive", p.Species)
	}
	if p.CareDurationDays <= 0 {
		return fmt.Errorf("species %s: care duration must be positive", p.Species)
	}
	if p.OvulationToleranceDays < 0 || p.FertileWindowDays < 0 || p.GestationVarianceDays < 0 ||
		p.SocializationBufferDays < 0 || p.GoHomeSpreadDays < 0 {
		return fmt.Errorf("species %s: window tolerances must not be negative", p.Species)
	}
	return nil
}
