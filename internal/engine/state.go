package engine

// Recurrence cells give each device-local computation access to the value
// it itself produced in its previous round. Reads come from the cell map of
// the preceding round and writes go to the current round's map; the maps
// are swapped when the round completes. A cell that is not written during a
// round therefore does not survive into the next one, which is what makes
// the temporal operators self-stabilizing under partition reshuffles: state
// for a partition key the device stopped evaluating simply ages out after
// one round.

// cellKey addresses one recurrence cell: the syntactic site plus the
// partition scope in effect at the access.
type cellKey struct {
	site  SiteID
	scope any
}

// scopeLink chains nested partition keys. Comparable as long as the keys
// themselves are.
type scopeLink struct {
	parent any
	key    any
}

// Prev returns the value stored at site in the device's immediately
// preceding round (def on the device's first round at this site under the
// current partition scope), then stores next for the following round.
//
// This is the one-step delay primitive the temporal operators are built on.
func Prev[T any](ctx *Context, site Site[T], def T, next T) T {
	k := cellKey{site: site.id, scope: ctx.scope}
	out := def
	if v, ok := ctx.dev.prevCells[k]; ok {
		out = v.(T)
	}
	ctx.dev.curCells[k] = next
	return out
}

// Recur implements monotone accumulation across a device's own past rounds:
// on the device's first round at site it stores and returns def; on every
// later round it computes transition(previous), stores, and returns the new
// value.
//
// Neighbor data never enters a cell directly: aggregate it first and feed
// only the resulting scalar into transition.
func Recur[T any](ctx *Context, site Site[T], def T, transition func(T) T) T {
	k := cellKey{site: site.id, scope: ctx.scope}
	out := def
	if v, ok := ctx.dev.prevCells[k]; ok {
		out = transition(v.(T))
	}
	ctx.dev.curCells[k] = out
	return out
}

// WithPartition evaluates body with every recurrence-cell access keyed by
// key in addition to its syntactic site. Two calls with different keys
// never observe or mutate each other's state, even from the same site on
// the same device. Neighbor visibility is deliberately unaffected: only
// self-state is partitioned, the surrounding hood communication stays
// global to the physical neighbor set.
//
// Scopes nest; the effective key is the whole chain of enclosing keys.
func WithPartition[K comparable, T any](ctx *Context, key K, body func() T) T {
	saved := ctx.scope
	ctx.scope = scopeLink{parent: saved, key: key}
	defer func() { ctx.scope = saved }()
	return body()
}
