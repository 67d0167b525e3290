// Command species-check validates a species-profile YAML bundle before it is
// deployed as a new registry version: structural profile invariants, unique
// species names, and sane analysis thresholds.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"broodcore/internal/registry"
)

var exitFunc = os.Exit

// main runs the command-line interface using the program arguments and exits
// the process with the status code returned by cli.
func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("species-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var profilePath string
	fs.StringVar(&profilePath, "profiles", "species.yaml", "path to species profile yaml")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	reg, err := registry.LoadFile(profilePath)
	if err != nil {
		if _, writeErr := fmt.Fprintf(stderr, "Species profile validation failed: %v\n", err); writeErr != nil {
			return 1
		}
		return 1
	}
	if _, writeErr := fmt.Fprintf(stdout, "Species profile validation passed: version %s, %d species.\n", reg.Version(), len(reg.Species())); writeErr != nil {
		return 1
	}
	return 0
}
