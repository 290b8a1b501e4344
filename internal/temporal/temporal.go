// Package temporal implements past-time temporal logic operators over a
// device's own round history.
//
// All three operators are built purely on the engine's recurrence cells and
// never touch neighbor data, so their correctness depends only on the
// device's own wake sequence: they are immune to neighbor churn, message
// loss and delivery jitter, and self-stabilize by construction.
//
// Each operator takes a dedicated Site allocated at program construction;
// evaluating the same operator at different program points requires
// different sites, and evaluating one site under different partition keys
// requires engine.WithPartition.
package temporal

import "github.com/roach88/fieldwatch/internal/engine"

// Yesterday returns whether x was true on the device's immediately
// preceding round; false on the first round, where no past exists. The cell
// is then updated to this round's x.
func Yesterday(ctx *engine.Context, site engine.Site[bool], x bool) bool {
	return engine.Prev(ctx, site, false, x)
}

// Historically returns whether x has been true on every round since and
// including the device's first round. Once false it stays false for the
// rest of the device's lifetime: false is an absorbing state.
func Historically(ctx *engine.Context, site engine.Site[bool], x bool) bool {
	return engine.Recur(ctx, site, x, func(prev bool) bool {
		return prev && x
	})
}

// Since returns whether y was true at some round up to and including the
// current one, with x true continuously at every round from that y-round
// through the current round. If y has never held, the result is false. A
// round where x is false resets the witness: the result can only become
// true again after a fresh y occurrence followed by unbroken x.
//
// The recurrence is new = (prev OR y) AND x, seeded on the first round
// with y AND x.
func Since(ctx *engine.Context, site engine.Site[bool], x, y bool) bool {
	return engine.Recur(ctx, site, y && x, func(prev bool) bool {
		return (prev || y) && x
	})
}
