package harness

import "fmt"

// EvaluateAssertions checks every assertion against the trace and returns
// one message per failure. An empty slice means the scenario passed.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if msg := evaluateAssertion(result, i, a); msg != "" {
			errs = append(errs, msg)
		}
	}
	return errs
}

func evaluateAssertion(result *Result, index int, a Assertion) string {
	var ev *TraceEvent
	switch a.Type {
	case AssertVerdictAt:
		ev = findVerdict(result.Trace, a.Device, a.Round)
		if ev == nil {
			return fmt.Sprintf("assertions[%d]: no verdict for device %d at round %d", index, a.Device, a.Round)
		}
	case AssertFinal:
		ev = findFinal(result.Trace, a.Device)
		if ev == nil {
			return fmt.Sprintf("assertions[%d]: no verdicts for device %d", index, a.Device)
		}
	default:
		return fmt.Sprintf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	got, ok := verdictField(ev, a.Field)
	if !ok {
		return fmt.Sprintf("assertions[%d]: unknown verdict field %q", index, a.Field)
	}
	if got != a.Value {
		return fmt.Sprintf("assertions[%d]: device %d round %d: %s = %v, want %v",
			index, ev.Device, ev.Round, a.Field, got, a.Value)
	}
	return ""
}

func findVerdict(trace []TraceEvent, device uint32, round int) *TraceEvent {
	for i := range trace {
		if trace[i].Device == device && trace[i].Round == round {
			return &trace[i]
		}
	}
	return nil
}

func findFinal(trace []TraceEvent, device uint32) *TraceEvent {
	var last *TraceEvent
	for i := range trace {
		if trace[i].Device == device {
			last = &trace[i]
		}
	}
	return last
}

func verdictField(ev *TraceEvent, field string) (bool, bool) {
	switch field {
	case FieldCluster:
		return ev.Cluster, true
	case FieldAlertStart:
		return ev.AlertStart, true
	case FieldAlertEnd:
		return ev.AlertEnd, true
	case FieldAllAlerted:
		return ev.AllAlerted, true
	case FieldNoNewAlarms:
		return ev.NoNewAlarms, true
	case FieldResult:
		return ev.Result, true
	default:
		return false, false
	}
}
