// Package compiler loads simulation scenarios written in CUE.
//
// YAML is the plain configuration surface; CUE is the typed one: a CUE
// scenario can carry constraints, defaults and comprehensions, and this
// package evaluates it down to the same sim.Scenario the YAML loader
// produces. Uses the CUE SDK's Go API directly (not a CLI subprocess).
package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/fieldwatch/internal/sim"
)

// LoadScenarioFile reads a CUE file and compiles it into a scenario.
func LoadScenarioFile(path string) (*sim.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	return CompileScenario(v)
}

// CompileScenario evaluates a CUE value into a validated scenario. The value
// should be the scenario struct itself:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`name: "demo", seed: 1, ...`)
//	sc, err := CompileScenario(v)
func CompileScenario(v cue.Value) (*sim.Scenario, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	sc := &sim.Scenario{}

	name, err := requiredString(v, "name")
	if err != nil {
		return nil, err
	}
	sc.Name = name

	sc.Seed, err = optionalInt(v, "seed", 0)
	if err != nil {
		return nil, err
	}
	sc.Duration, err = requiredFloat(v, "duration")
	if err != nil {
		return nil, err
	}

	if area := v.LookupPath(cue.ParsePath("area")); area.Exists() {
		if sc.Area.Width, err = requiredFloat(area, "width"); err != nil {
			return nil, err
		}
		if sc.Area.Height, err = requiredFloat(area, "height"); err != nil {
			return nil, err
		}
	}
	if sc.CommunicationRange, err = optionalFloat(v, "communication_range", 0); err != nil {
		return nil, err
	}
	if ret := v.LookupPath(cue.ParsePath("retention")); ret.Exists() {
		if sc.Retention.MaxAge, err = requiredFloat(ret, "max_age"); err != nil {
			return nil, err
		}
		if sc.Retention.Sweep, err = requiredFloat(ret, "sweep"); err != nil {
			return nil, err
		}
	}
	if sch := v.LookupPath(cue.ParsePath("schedule")); sch.Exists() {
		if sc.Schedule.Mean, err = requiredFloat(sch, "mean"); err != nil {
			return nil, err
		}
		if sc.Schedule.Dev, err = requiredFloat(sch, "dev"); err != nil {
			return nil, err
		}
	}
	if sc.SamplePeriod, err = optionalFloat(v, "sample_period", 0); err != nil {
		return nil, err
	}

	if mon := v.LookupPath(cue.ParsePath("monitor")); mon.Exists() {
		if sc.Monitor.WarningDistance, err = optionalFloat(mon, "warning_distance", 0); err != nil {
			return nil, err
		}
		wn, err := optionalInt(mon, "warning_neighbors", 0)
		if err != nil {
			return nil, err
		}
		sc.Monitor.WarningNeighbors = int(wn)
		cw, err := optionalInt(mon, "cluster_warnings", 0)
		if err != nil {
			return nil, err
		}
		sc.Monitor.ClusterWarnings = int(cw)
		mgs, err := optionalInt(mon, "max_group_size", 0)
		if err != nil {
			return nil, err
		}
		sc.Monitor.MaxGroupSize = uint32(mgs)
	}

	sc.Groups, err = parseGroups(v)
	if err != nil {
		return nil, err
	}

	sc.ApplyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, &CompileError{
			Field:   "scenario",
			Message: err.Error(),
			Pos:     v.Pos(),
		}
	}
	return sc, nil
}

func parseGroups(v cue.Value) ([]sim.GroupConfig, error) {
	groupsVal := v.LookupPath(cue.ParsePath("groups"))
	if !groupsVal.Exists() {
		return nil, &CompileError{
			Field:   "groups",
			Message: "groups list is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := groupsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var groups []sim.GroupConfig
	for iter.Next() {
		gv := iter.Value()
		var g sim.GroupConfig

		id, err := requiredInt(gv, "id")
		if err != nil {
			return nil, err
		}
		g.ID = uint32(id)

		count, err := requiredInt(gv, "count")
		if err != nil {
			return nil, err
		}
		g.Count = int(count)

		if g.Radius, err = requiredFloat(gv, "radius"); err != nil {
			return nil, err
		}
		if g.Speed, err = requiredFloat(gv, "speed"); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{Field: field, Message: "is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func requiredFloat(v cue.Value, field string) (float64, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return 0, &CompileError{Field: field, Message: "is required", Pos: v.Pos()}
	}
	f, err := fv.Float64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return f, nil
}

func optionalFloat(v cue.Value, field string, def float64) (float64, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return def, nil
	}
	f, err := fv.Float64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return f, nil
}

func requiredInt(v cue.Value, field string) (int64, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return 0, &CompileError{Field: field, Message: "is required", Pos: v.Pos()}
	}
	i, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return i, nil
}

func optionalInt(v cue.Value, field string, def int64) (int64, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return def, nil
	}
	i, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return i, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
