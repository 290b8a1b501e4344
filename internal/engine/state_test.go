package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

// testDevice returns a device plus a helper that starts a fresh round
// context and a helper that completes the round, driving the cell swap the
// network loop would normally perform.
func testDevice(t *testing.T) (*Device, func() *Context) {
	t.Helper()
	d := newDevice(1, Position{}, nil, Retention{MaxAge: 3, Sweep: 1}, rand.New(rand.NewSource(1)))
	round := func() *Context {
		return &Context{dev: d, out: make(map[string]any)}
	}
	return d, round
}

func TestPrevDelaysOneRound(t *testing.T) {
	p := NewProgram("test")
	site := NewSite[int](p, "x")
	d, round := testDevice(t)

	ctx := round()
	assert.Equal(t, 42, Prev(ctx, site, 42, 1), "first round returns the default")
	d.completeRound(0)

	ctx = round()
	assert.Equal(t, 1, Prev(ctx, site, 42, 2))
	d.completeRound(1)

	ctx = round()
	assert.Equal(t, 2, Prev(ctx, site, 42, 3))
}

func TestPrevUnwrittenCellAgesOut(t *testing.T) {
	p := NewProgram("test")
	site := NewSite[int](p, "x")
	d, round := testDevice(t)

	ctx := round()
	Prev(ctx, site, 0, 7)
	d.completeRound(0)

	// A round that does not touch the site.
	d.completeRound(1)

	ctx = round()
	assert.Equal(t, 0, Prev(ctx, site, 0, 9), "state written two rounds ago must have expired")
}

func TestRecurAccumulates(t *testing.T) {
	p := NewProgram("test")
	site := NewSite[int](p, "sum")
	d, round := testDevice(t)

	inc := func(prev int) int { return prev + 1 }

	assert.Equal(t, 1, Recur(round(), site, 1, inc))
	d.completeRound(0)
	assert.Equal(t, 2, Recur(round(), site, 1, inc))
	d.completeRound(1)
	assert.Equal(t, 3, Recur(round(), site, 1, inc))
}

func TestDistinctSitesDoNotCollide(t *testing.T) {
	p := NewProgram("test")
	a := NewSite[int](p, "a")
	b := NewSite[int](p, "b")
	d, round := testDevice(t)

	ctx := round()
	Prev(ctx, a, 0, 10)
	Prev(ctx, b, 0, 20)
	d.completeRound(0)

	ctx = round()
	assert.Equal(t, 10, Prev(ctx, a, 0, 0))
	assert.Equal(t, 20, Prev(ctx, b, 0, 0))
}

func TestWithPartitionIsolatesState(t *testing.T) {
	p := NewProgram("test")
	site := NewSite[int](p, "x")
	d, round := testDevice(t)

	ctx := round()
	WithPartition(ctx, uint32(0), func() int { return Prev(ctx, site, 0, 100) })
	WithPartition(ctx, uint32(1), func() int { return Prev(ctx, site, 0, 200) })
	d.completeRound(0)

	ctx = round()
	assert.Equal(t, 100, WithPartition(ctx, uint32(0), func() int { return Prev(ctx, site, -1, 0) }))
	assert.Equal(t, 200, WithPartition(ctx, uint32(1), func() int { return Prev(ctx, site, -1, 0) }))
	assert.Equal(t, -1, WithPartition(ctx, uint32(2), func() int { return Prev(ctx, site, -1, 0) }),
		"an unseen key starts from the default")
}

func TestWithPartitionAbandonedKeyExpires(t *testing.T) {
	p := NewProgram("test")
	site := NewSite[int](p, "x")
	d, round := testDevice(t)

	ctx := round()
	WithPartition(ctx, uint32(0), func() int { return Prev(ctx, site, 0, 100) })
	d.completeRound(0)

	// Next round evaluates only key 1; key 0 is not rewritten.
	ctx = round()
	WithPartition(ctx, uint32(1), func() int { return Prev(ctx, site, 0, 200) })
	d.completeRound(1)

	// Returning to key 0 finds a fresh history.
	ctx = round()
	assert.Equal(t, -1, WithPartition(ctx, uint32(0), func() int { return Prev(ctx, site, -1, 0) }))
}

func TestWithPartitionNests(t *testing.T) {
	p := NewProgram("test")
	site := NewSite[int](p, "x")
	d, round := testDevice(t)

	ctx := round()
	WithPartition(ctx, uint32(1), func() int {
		WithPartition(ctx, "inner-a", func() int { return Prev(ctx, site, 0, 11) })
		WithPartition(ctx, "inner-b", func() int { return Prev(ctx, site, 0, 22) })
		return 0
	})
	d.completeRound(0)

	ctx = round()
	WithPartition(ctx, uint32(1), func() int {
		assert.Equal(t, 11, WithPartition(ctx, "inner-a", func() int { return Prev(ctx, site, -1, 0) }))
		assert.Equal(t, 22, WithPartition(ctx, "inner-b", func() int { return Prev(ctx, site, -1, 0) }))
		return 0
	})
	// The same inner key under a different outer key is distinct state.
	assert.Equal(t, -1, WithPartition(ctx, uint32(2), func() int {
		return WithPartition(ctx, "inner-a", func() int { return Prev(ctx, site, -1, 0) })
	}))
}
