package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/fieldwatch/internal/trace"
)

// TraceSnapshot captures the verdict trace of one scenario execution in a
// form canonical JSON can encode.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []TraceEvent
}

// toCanonicalMap converts the snapshot to the map shape MarshalCanonical
// accepts. Booleans and integers pass through; nothing here is fractional.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	events := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		events[i] = map[string]any{
			"device":        ev.Device,
			"round":         ev.Round,
			"group":         ev.Group,
			"cluster":       ev.Cluster,
			"alert_start":   ev.AlertStart,
			"alert_end":     ev.AlertEnd,
			"all_alerted":   ev.AllAlerted,
			"no_new_alarms": ev.NoNewAlarms,
			"result":        ev.Result,
		}
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         events,
	}
}

// RunWithGolden executes a scenario, fails the test on any assertion
// failure, and compares the canonical trace against the golden file
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		Trace:        result.Trace,
	}
	data, err := trace.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
