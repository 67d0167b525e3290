package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCLIValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "species.yaml")
	content := "version: v1\nprofiles:\n  - species: dog\n    cycle_length_days: 21\n    ovulation_offset_days: 12\n    gestation_length_days: 63\n    care_duration_days: 56\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-profiles", path}, &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit 0 got %d (stderr %q)", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "version v1, 1 species") {
		t.Fatalf("unexpected output %q", stdout.String())
	}
}

func TestCLIInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "species.yaml")
	content := "version: v1\nprofiles:\n  - species: dog\n    cycle_length_days: 21\n    ovulation_offset_days: 25\n    gestation_length_days: 63\n    care_duration_days: 56\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-profiles", path}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit 1 got %d", code)
	}
	if !strings.Contains(stderr.String(), "validation failed") {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}
}

func TestCLIBadFlags(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-definitely-not-a-flag"}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit 2 got %d", code)
	}
}
