package engine

import "sort"

// Sample is one element of a hood: a value observed at a currently-visible
// device, tagged with the device id and the distance to it. The executing
// device appears exactly once, with Self set and distance 0.
type Sample[T any] struct {
	ID    DeviceID
	Value T
	Dist  float64
	Self  bool
}

// Share publishes v under field in this round's export and returns the
// hood for the field: the device's own current value plus, for each visible
// neighbor, the value that neighbor shared under the same field in its own
// last retained round. Neighbors whose export lacks the field (or holds it
// at a different type) are not aligned on it and are skipped.
//
// The hood is ordered by ascending device id, so folds over it are
// deterministic; combinators must still be associative and commutative
// with an identity, since the visible set itself is not stable across
// rounds.
func Share[T any](ctx *Context, field Field[T], v T) []Sample[T] {
	ctx.out[field.name] = v

	hood := make([]Sample[T], 0, len(ctx.neighbors)+1)
	for _, nb := range ctx.neighbors {
		raw, ok := nb.export.Field(field.name)
		if !ok {
			continue
		}
		val, ok := raw.(T)
		if !ok {
			continue
		}
		hood = append(hood, Sample[T]{ID: nb.id, Value: val, Dist: nb.dist})
	}
	hood = append(hood, Sample[T]{ID: ctx.dev.id, Value: v, Dist: 0, Self: true})
	sortHood(hood)
	return hood
}

// DistHood returns the per-neighbor distance hood: 0 for self, and for each
// visible neighbor the distance between the device's current position and
// the position the neighbor's export was produced at.
func DistHood(ctx *Context) []Sample[float64] {
	hood := make([]Sample[float64], 0, len(ctx.neighbors)+1)
	for _, nb := range ctx.neighbors {
		hood = append(hood, Sample[float64]{ID: nb.id, Value: nb.dist, Dist: nb.dist})
	}
	hood = append(hood, Sample[float64]{ID: ctx.dev.id, Value: 0, Dist: 0, Self: true})
	sortHood(hood)
	return hood
}

// FoldHood folds combine over the hood starting from identity. combine
// must be associative and commutative in its value argument for the result
// to be independent of hood order.
func FoldHood[T, A any](hood []Sample[T], identity A, combine func(A, T) A) A {
	acc := identity
	for _, s := range hood {
		acc = combine(acc, s.Value)
	}
	return acc
}

// CountHood counts the hood samples satisfying pred.
func CountHood[T any](hood []Sample[T], pred func(T) bool) int {
	n := 0
	for _, s := range hood {
		if pred(s.Value) {
			n++
		}
	}
	return n
}

// AnyHood is the logical-or fold over a boolean hood.
func AnyHood(hood []Sample[bool]) bool {
	for _, s := range hood {
		if s.Value {
			return true
		}
	}
	return false
}

// AllHood is the logical-and fold over a boolean hood.
func AllHood(hood []Sample[bool]) bool {
	for _, s := range hood {
		if !s.Value {
			return false
		}
	}
	return true
}

func sortHood[T any](hood []Sample[T]) {
	sort.Slice(hood, func(i, j int) bool { return hood[i].ID < hood[j].ID })
}
