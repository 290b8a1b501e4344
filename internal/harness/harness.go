package harness

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/fieldwatch/internal/engine"
	"github.com/roach88/fieldwatch/internal/monitor"
	"github.com/roach88/fieldwatch/internal/testutil"
)

// TraceEvent is one verdict of one device at one round.
type TraceEvent struct {
	Device      uint32
	Round       int
	Group       uint32
	Cluster     bool
	AlertStart  bool
	AlertEnd    bool
	AllAlerted  bool
	NoNewAlarms bool
	Result      bool
}

// Result is the outcome of a scenario run: the full verdict trace plus any
// assertion failures.
type Result struct {
	Trace  []TraceEvent
	Errors []string
}

// Passed reports whether every assertion held.
func (r *Result) Passed() bool { return len(r.Errors) == 0 }

// AddError records an assertion failure.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Run executes a scenario on a real network and evaluates its assertions.
//
// Every device runs on the unit schedule, so round k of every device
// happens at simulated time k-1 and devices within a time step execute in
// ascending id order. The trace is therefore round-major and fully
// deterministic, which is what makes golden comparison possible.
func Run(scenario *Scenario) (*Result, error) {
	scripts := make(map[engine.DeviceID]DeviceScript, len(scenario.Devices))
	for _, d := range scenario.Devices {
		scripts[engine.DeviceID(d.ID)] = d
	}

	result := &Result{}

	program := engine.NewProgram("harness")
	sites := monitor.NewSites(program)
	roundSite := engine.NewSite[int](program, "harness.round")
	program.Define(func(ctx *engine.Context) {
		script := scripts[ctx.Self()]
		round := engine.Recur(ctx, roundSite, 1, func(prev int) int { return prev + 1 })
		if round > len(script.History) {
			return
		}

		cluster := script.History[round-1]
		group := uint32(0)
		if len(script.Groups) > 0 {
			group = script.Groups[round-1]
		}

		v := sites.Evaluate(ctx, group, cluster)
		result.Trace = append(result.Trace, TraceEvent{
			Device:      uint32(ctx.Self()),
			Round:       round,
			Group:       group,
			Cluster:     cluster,
			AlertStart:  v.AlertStart,
			AlertEnd:    v.AlertEnd,
			AllAlerted:  v.AllAlerted,
			NoNewAlarms: v.NoNewAlarms,
			Result:      v.Result,
		})
	})

	net, err := engine.New(engine.Config{
		CommunicationRange: 100,
		Retention:          engine.Retention{MaxAge: 3, Sweep: 1},
		Schedule:           testutil.UnitSchedule{},
		Seed:               1,
	}, program)
	if err != nil {
		return nil, fmt.Errorf("build network: %w", err)
	}

	// Add in ascending id order so the event heap's tie break on insertion
	// order produces ascending id execution within each time step.
	ordered := make([]DeviceScript, len(scenario.Devices))
	copy(ordered, scenario.Devices)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	for _, d := range ordered {
		if err := net.AddDevice(engine.DeviceID(d.ID), engine.Position{}, nil); err != nil {
			return nil, fmt.Errorf("device %d: %w", d.ID, err)
		}
	}

	if err := net.Run(context.Background(), engine.Time(scenario.Rounds()-1)); err != nil {
		return nil, fmt.Errorf("run network: %w", err)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}
