// Package harness provides a conformance testing framework for the
// consistency monitor.
//
// A harness scenario scripts the cluster predicate of each device round by
// round instead of deriving it from live neighborhood density, which makes
// the monitor's temporal behavior exactly computable by hand. The harness
// runs the scripted devices on a real network with a unit schedule (every
// device rounds once per simulated second), records every verdict into a
// trace, and evaluates the scenario's assertions against that trace.
//
// Traces are also comparable against golden files through canonical JSON,
// so a scenario doubles as a byte-stable regression fixture:
//
//	go test ./internal/harness -update
//
// regenerates the golden files.
package harness
