package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioFilesPass(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			for _, msg := range result.Errors {
				t.Error(msg)
			}
		})
	}
}

func TestRunTraceShape(t *testing.T) {
	scenario := &Scenario{
		Name:        "shape",
		Description: "trace covers every device and round",
		Devices: []DeviceScript{
			{ID: 2, History: []bool{true, false, true}},
			{ID: 1, History: []bool{false, false, false}},
		},
	}
	require.NoError(t, validateScenario(scenario))

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Trace, 6)

	// Round-major, ascending device id within each round.
	for i, want := range []struct {
		device uint32
		round  int
	}{
		{1, 1}, {2, 1}, {1, 2}, {2, 2}, {1, 3}, {2, 3},
	} {
		assert.Equal(t, want.device, result.Trace[i].Device, "event %d", i)
		assert.Equal(t, want.round, result.Trace[i].Round, "event %d", i)
	}
}

func TestFailingAssertionReported(t *testing.T) {
	scenario := &Scenario{
		Name:        "failing",
		Description: "deliberately wrong expectation",
		Devices:     []DeviceScript{{ID: 1, History: []bool{true}}},
		Assertions: []Assertion{
			{Type: AssertVerdictAt, Device: 1, Round: 1, Field: FieldAlertStart, Value: true},
		},
	}
	require.NoError(t, validateScenario(scenario))

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Passed())
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "alert_start")
}

func TestLoadScenarioRejectsMalformed(t *testing.T) {
	write := func(content string) string {
		path := filepath.Join(t.TempDir(), "s.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "name: x\ndescription: d\ndevicess: []\n"},
		{"missing description", "name: x\ndevices:\n  - id: 1\n    history: [true]\n"},
		{"empty devices", "name: x\ndescription: d\ndevices: []\n"},
		{"empty history", "name: x\ndescription: d\ndevices:\n  - id: 1\n    history: []\n"},
		{"ragged histories", `
name: x
description: d
devices:
  - id: 1
    history: [true, true]
  - id: 2
    history: [true]
`},
		{"groups length mismatch", `
name: x
description: d
devices:
  - id: 1
    history: [true, true]
    groups: [0]
`},
		{"duplicate device", `
name: x
description: d
devices:
  - id: 1
    history: [true]
  - id: 1
    history: [false]
`},
		{"assertion round out of range", `
name: x
description: d
devices:
  - id: 1
    history: [true]
assertions:
  - {type: verdict_at, device: 1, round: 2, field: result, value: true}
`},
		{"assertion unknown device", `
name: x
description: d
devices:
  - id: 1
    history: [true]
assertions:
  - {type: final, device: 9, field: result, value: true}
`},
		{"assertion unknown field", `
name: x
description: d
devices:
  - id: 1
    history: [true]
assertions:
  - {type: final, device: 1, field: verdict, value: true}
`},
		{"assertion unknown type", `
name: x
description: d
devices:
  - id: 1
    history: [true]
assertions:
  - {type: sometimes, device: 1, field: result, value: true}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(write(tt.content))
			assert.Error(t, err)
		})
	}
}

func TestEvaluateAssertionsAgainstTrace(t *testing.T) {
	result := &Result{Trace: []TraceEvent{
		{Device: 1, Round: 1, Cluster: true, AllAlerted: true, NoNewAlarms: true, Result: true},
		{Device: 1, Round: 2, AlertEnd: true, NoNewAlarms: true, Result: true},
	}}

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertVerdictAt, Device: 1, Round: 1, Field: FieldCluster, Value: true},
		{Type: AssertVerdictAt, Device: 1, Round: 2, Field: FieldAlertEnd, Value: true},
		{Type: AssertFinal, Device: 1, Field: FieldResult, Value: true},
	})
	assert.Empty(t, errs)

	errs = EvaluateAssertions(result, []Assertion{
		{Type: AssertVerdictAt, Device: 1, Round: 2, Field: FieldCluster, Value: true},
		{Type: AssertVerdictAt, Device: 2, Round: 1, Field: FieldResult, Value: true},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "cluster")
	assert.Contains(t, errs[1], "no verdict")
}
