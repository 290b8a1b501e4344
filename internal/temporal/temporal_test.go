package temporal_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldwatch/internal/engine"
	"github.com/roach88/fieldwatch/internal/temporal"
	"github.com/roach88/fieldwatch/internal/testutil"
)

// evalRounds runs a single device for n rounds on the unit schedule and
// calls body once per round with the 1-based round number. The operators
// under test run inside a real round context, so the cell-swap semantics
// they depend on are the production ones.
func evalRounds(t *testing.T, p *engine.Program, counter engine.Site[int], n int, body func(ctx *engine.Context, round int)) {
	t.Helper()

	p.Define(func(ctx *engine.Context) {
		round := engine.Recur(ctx, counter, 1, func(prev int) int { return prev + 1 })
		body(ctx, round)
	})

	net, err := engine.New(engine.Config{
		CommunicationRange: 100,
		Retention:          engine.Retention{MaxAge: 3, Sweep: 1},
		Schedule:           testutil.UnitSchedule{},
		Seed:               1,
	}, p)
	require.NoError(t, err)
	require.NoError(t, net.AddDevice(1, engine.Position{}, nil))
	require.NoError(t, net.Run(context.Background(), engine.Time(n-1)))
}

func TestYesterday(t *testing.T) {
	p := engine.NewProgram("test")
	counter := engine.NewSite[int](p, "round")
	site := engine.NewSite[bool](p, "y")

	inputs := []bool{true, false, true, true}
	want := []bool{false, true, false, true}

	var got []bool
	evalRounds(t, p, counter, len(inputs), func(ctx *engine.Context, round int) {
		got = append(got, temporal.Yesterday(ctx, site, inputs[round-1]))
	})
	require.Equal(t, want, got)
}

func TestHistorically(t *testing.T) {
	tests := []struct {
		name   string
		inputs []bool
		want   []bool
	}{
		{"holds then breaks", []bool{true, true, false, true}, []bool{true, true, false, false}},
		{"false from the start is absorbing", []bool{false, true, true}, []bool{false, false, false}},
		{"holds throughout", []bool{true, true, true}, []bool{true, true, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := engine.NewProgram("test")
			counter := engine.NewSite[int](p, "round")
			site := engine.NewSite[bool](p, "h")

			var got []bool
			evalRounds(t, p, counter, len(tt.inputs), func(ctx *engine.Context, round int) {
				got = append(got, temporal.Historically(ctx, site, tt.inputs[round-1]))
			})
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSince(t *testing.T) {
	tests := []struct {
		name string
		x    []bool
		y    []bool
		want []bool
	}{
		{
			"y never holds",
			[]bool{true, true, true},
			[]bool{false, false, false},
			[]bool{false, false, false},
		},
		{
			"y at a later round",
			[]bool{true, true, true, true},
			[]bool{false, true, false, false},
			[]bool{false, true, true, true},
		},
		{
			"x break resets the witness",
			[]bool{true, true, false, true},
			[]bool{true, false, false, false},
			[]bool{true, true, false, false},
		},
		{
			"fresh y after a break recovers",
			[]bool{true, false, true, true},
			[]bool{true, false, true, false},
			[]bool{true, false, true, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := engine.NewProgram("test")
			counter := engine.NewSite[int](p, "round")
			site := engine.NewSite[bool](p, "s")

			var got []bool
			evalRounds(t, p, counter, len(tt.x), func(ctx *engine.Context, round int) {
				got = append(got, temporal.Since(ctx, site, tt.x[round-1], tt.y[round-1]))
			})
			require.Equal(t, tt.want, got)
		})
	}
}

func TestOperatorStateExpiresWhenUnevaluated(t *testing.T) {
	p := engine.NewProgram("test")
	counter := engine.NewSite[int](p, "round")
	site := engine.NewSite[bool](p, "y")

	// Round 1 records true; round 2 skips the operator entirely; round 3
	// must see a fresh history, not the value from round 1.
	var got []bool
	evalRounds(t, p, counter, 3, func(ctx *engine.Context, round int) {
		if round == 2 {
			return
		}
		got = append(got, temporal.Yesterday(ctx, site, true))
	})
	require.Equal(t, []bool{false, false}, got)
}
