package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/roach88/fieldwatch/internal/compiler"
	"github.com/roach88/fieldwatch/internal/sim"
)

// LoadScenario loads a scenario from a YAML or CUE file, dispatching on the
// file extension. Both loaders apply the same defaults and validation and
// produce the same scenario type.
func LoadScenario(path string) (*sim.Scenario, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return sim.LoadScenario(path)
	case ".cue":
		return compiler.LoadScenarioFile(path)
	default:
		return nil, fmt.Errorf("unsupported scenario format %q: use .yaml, .yml or .cue", filepath.Ext(path))
	}
}
