package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"broodcore/pkg/domain"
)

func TestBuiltinLookup(t *testing.T) {
	reg := Builtin()
	if reg.Version() != "builtin-v1" {
		t.Fatalf("unexpected version %q", reg.Version())
	}
	if got := reg.Species(); len(got) != 3 || got[0] != "cat" || got[1] != "dog" || got[2] != "rabbit" {
		t.Fatalf("unexpected species list %v", got)
	}

	profile, err := reg.Defaults("dog")
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if profile.OvulationOffsetDays != 12 || profile.GestationLengthDays != 63 {
		t.Fatalf("unexpected dog profile %+v", profile)
	}

	// Lookup is case- and whitespace-insensitive.
	if _, err := reg.Defaults("  Dog "); err != nil {
		t.Fatalf("normalised lookup failed: %v", err)
	}

	// An unknown species never falls back to another species' constants.
	_, err = reg.Defaults("axolotl")
	var unknown domain.UnknownSpeciesError
	if !errors.As(err, &unknown) || unknown.Species != "axolotl" {
		t.Fatalf("expected UnknownSpeciesError{axolotl} got %v", err)
	}
}

func TestParseProfileFile(t *testing.T) {
	data := []byte(`version: kennel-2026
analysis:
  min_samples: 4
  classification_threshold_days: 2.0
  variance_threshold_days: 1.0
  high_variance_days: 2.5
  monitoring_lead_days: 2
profiles:
  - species: dog
    cycle_length_days: 21
    ovulation_offset_days: 12
    gestation_length_days: 63
    care_duration_days: 56
    ovulation_tolerance_days: 2
    fertile_window_days: 2
    gestation_variance_days: 2
    socialization_buffer_days: 7
    go_home_spread_days: 7
  - species: fox
    cycle_length_days: 24
    ovulation_offset_days: 10
    gestation_length_days: 52
    care_duration_days: 49
`)
	reg, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if reg.Version() != "kennel-2026" {
		t.Fatalf("unexpected version %q", reg.Version())
	}
	if reg.Analysis().MinSamples != 4 || reg.Analysis().ClassificationThresholdDays != 2.0 {
		t.Fatalf("analysis overrides not applied: %+v", reg.Analysis())
	}
	if _, err := reg.Defaults("fox"); err != nil {
		t.Fatalf("fox profile missing: %v", err)
	}

	// Omitted analysis block falls back to stock defaults.
	reg, err = Parse([]byte("version: v2\nprofiles:\n  - species: dog\n    cycle_length_days: 21\n    ovulation_offset_days: 12\n    gestation_length_days: 63\n    care_duration_days: 56\n"))
	if err != nil {
		t.Fatalf("parse minimal: %v", err)
	}
	if reg.Analysis() != DefaultAnalysisConfig() {
		t.Fatalf("expected default analysis config got %+v", reg.Analysis())
	}
}

func TestParseRejectsInvalidFiles(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"missing version", "profiles:\n  - species: dog\n    cycle_length_days: 21\n    ovulation_offset_days: 12\n    gestation_length_days: 63\n    care_duration_days: 56\n"},
		{"no profiles", "version: v1\n"},
		{"offset outside cycle", "version: v1\nprofiles:\n  - species: dog\n    cycle_length_days: 21\n    ovulation_offset_days: 21\n    gestation_length_days: 63\n    care_duration_days: 56\n"},
		{"negative tolerance", "version: v1\nprofiles:\n  - species: dog\n    cycle_length_days: 21\n    ovulation_offset_days: 12\n    gestation_length_days: 63\n    care_duration_days: 56\n    fertile_window_days: -1\n"},
		{"duplicate species", "version: v1\nprofiles:\n  - species: dog\n    cycle_length_days: 21\n    ovulation_offset_days: 12\n    gestation_length_days: 63\n    care_duration_days: 56\n  - species: DOG\n    cycle_length_days: 22\n    ovulation_offset_days: 11\n    gestation_length_days: 63\n    care_duration_days: 56\n"},
		{"zero min samples", "version: v1\nanalysis:\n  min_samples: 0\nprofiles:\n  - species: dog\n    cycle_length_days: 21\n    ovulation_offset_days: 12\n    gestation_length_days: 63\n    care_duration_days: 56\n"},
		{"not yaml", ":\n  - ["},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.data)); err == nil {
				t.Fatalf("expected parse error")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	content := "version: v1\nprofiles:\n  - species: ferret\n    cycle_length_days: 30\n    ovulation_offset_days: 2\n    gestation_length_days: 42\n    care_duration_days: 42\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	reg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := reg.Defaults("ferret"); err != nil {
		t.Fatalf("ferret missing: %v", err)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
