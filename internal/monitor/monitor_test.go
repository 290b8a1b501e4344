package monitor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldwatch/internal/engine"
	"github.com/roach88/fieldwatch/internal/monitor"
	"github.com/roach88/fieldwatch/internal/testutil"
)

// evalScript runs a single device whose cluster predicate and partition key
// are scripted per round, and returns the verdicts in round order.
func evalScript(t *testing.T, clusters []bool, keys []uint32) []monitor.Verdict {
	t.Helper()

	p := engine.NewProgram("monitor-test")
	sites := monitor.NewSites(p)
	counter := engine.NewSite[int](p, "round")

	var verdicts []monitor.Verdict
	p.Define(func(ctx *engine.Context) {
		round := engine.Recur(ctx, counter, 1, func(prev int) int { return prev + 1 })
		key := uint32(0)
		if keys != nil {
			key = keys[round-1]
		}
		verdicts = append(verdicts, sites.Evaluate(ctx, key, clusters[round-1]))
	})

	net, err := engine.New(engine.Config{
		CommunicationRange: 100,
		Retention:          engine.Retention{MaxAge: 3, Sweep: 1},
		Schedule:           testutil.UnitSchedule{},
		Seed:               1,
	}, p)
	require.NoError(t, err)
	require.NoError(t, net.AddDevice(1, engine.Position{}, nil))
	require.NoError(t, net.Run(context.Background(), engine.Time(len(clusters)-1)))
	require.Len(t, verdicts, len(clusters))
	return verdicts
}

func TestCleanAlertLifecycle(t *testing.T) {
	// Alerted from the device's first round, retracted only after the
	// whole history was alerted: the property holds at the retraction.
	v := evalScript(t, []bool{true, true, true, false}, nil)

	for i, verdict := range v {
		assert.True(t, verdict.Result, "round %d", i+1)
	}
	assert.False(t, v[0].AlertStart, "no transition on the first round")
	assert.True(t, v[2].AllAlerted)
	assert.True(t, v[3].AlertEnd)
	assert.False(t, v[3].AllAlerted)
	assert.True(t, v[3].NoNewAlarms)
}

func TestAlarmAfterQuietViolates(t *testing.T) {
	// An alert ends at round 2, a new one starts at round 3 and ends at
	// round 4. No universal alert precedes the second retraction, so the
	// property fails exactly there.
	v := evalScript(t, []bool{true, false, true, false}, nil)

	assert.True(t, v[0].Result)
	assert.True(t, v[1].AlertEnd)
	assert.True(t, v[1].Result, "first retraction follows universal alert")
	assert.True(t, v[2].AlertStart)
	assert.True(t, v[2].Result, "no retraction at round 3")
	assert.True(t, v[3].AlertEnd)
	assert.False(t, v[3].NoNewAlarms)
	assert.False(t, v[3].Result, "second retraction violates the property")
}

func TestNeverAlerted(t *testing.T) {
	v := evalScript(t, []bool{false, false, false}, nil)
	for i, verdict := range v {
		assert.False(t, verdict.AlertStart, "round %d", i+1)
		assert.False(t, verdict.AlertEnd, "round %d", i+1)
		assert.False(t, verdict.AllAlerted, "round %d", i+1)
		assert.False(t, verdict.NoNewAlarms, "round %d", i+1)
		assert.True(t, verdict.Result, "round %d", i+1)
	}
}

func TestPartitionKeyChangeStartsFreshHistory(t *testing.T) {
	// Round 1 runs under key 0 with cluster false, which makes AllAlerted
	// false for that key's whole history. Round 2 switches to key 1: the
	// device starts a fresh history there and AllAlerted holds again.
	v := evalScript(t, []bool{false, true, true}, []uint32{0, 1, 1})

	assert.False(t, v[0].AllAlerted)
	assert.True(t, v[1].AllAlerted, "fresh key, fresh history")
	assert.False(t, v[1].AlertStart, "first round under the new key has no past")
	assert.True(t, v[2].AllAlerted)
}

func TestReturningToAbandonedKeyIsFresh(t *testing.T) {
	// Key 0 state is written at round 1, left unevaluated at round 2, and
	// has expired by round 3: the return to key 0 behaves like a first
	// round.
	v := evalScript(t, []bool{true, true, true}, []uint32{0, 1, 0})

	assert.True(t, v[0].AllAlerted)
	assert.True(t, v[2].AllAlerted)
	assert.False(t, v[2].AlertStart, "no transition without a surviving past")
}

func TestDensityProgramEndToEnd(t *testing.T) {
	prog := monitor.NewProgram(monitor.Config{CommunicationRange: 100})

	net, err := engine.New(engine.Config{
		CommunicationRange: 100,
		Retention:          engine.Retention{MaxAge: 3, Sweep: 1},
		Schedule:           testutil.UnitSchedule{},
		Seed:               1,
	}, prog.Engine())
	require.NoError(t, err)

	// Seven co-located devices: enough for the density warning (more than
	// 5 within a quarter of the range) and the cluster threshold.
	for i := engine.DeviceID(0); i < 7; i++ {
		require.NoError(t, net.AddDevice(i, engine.Position{X: 1, Y: 1}, nil))
	}

	// Round 1 sees no neighbors yet, round 2 sees distances, round 3 sees
	// everyone's round-2 warnings; run a few rounds past that.
	require.NoError(t, net.Run(context.Background(), 5))

	for _, d := range net.Devices() {
		st := d.Storage()
		assert.True(t, st.Bool(monitor.TagWarning, false), "device %d", d.ID())
		assert.True(t, st.Bool(monitor.TagCluster, false), "device %d", d.ID())
		assert.True(t, st.Bool(monitor.TagConsistency, false), "device %d", d.ID())
		assert.Equal(t, monitor.ColorGreen, st.String(monitor.TagColor, ""), "device %d", d.ID())
		assert.Equal(t, monitor.ShapeStar, st.String(monitor.TagShape, ""), "device %d", d.ID())
		assert.Equal(t, 20.0, st.Float(monitor.TagSize, 0), "device %d", d.ID())
	}
}

func TestSparseDevicesStayQuiet(t *testing.T) {
	prog := monitor.NewProgram(monitor.Config{CommunicationRange: 100})

	net, err := engine.New(engine.Config{
		CommunicationRange: 100,
		Retention:          engine.Retention{MaxAge: 3, Sweep: 1},
		Schedule:           testutil.UnitSchedule{},
		Seed:               1,
	}, prog.Engine())
	require.NoError(t, err)

	// Three devices in radio range but outside the warning distance.
	require.NoError(t, net.AddDevice(0, engine.Position{X: 0, Y: 0}, nil))
	require.NoError(t, net.AddDevice(1, engine.Position{X: 60, Y: 0}, nil))
	require.NoError(t, net.AddDevice(2, engine.Position{X: 0, Y: 60}, nil))

	require.NoError(t, net.Run(context.Background(), 5))

	for _, d := range net.Devices() {
		st := d.Storage()
		assert.False(t, st.Bool(monitor.TagWarning, true), "device %d", d.ID())
		assert.False(t, st.Bool(monitor.TagCluster, true), "device %d", d.ID())
		assert.True(t, st.Bool(monitor.TagConsistency, false), "device %d", d.ID())
		assert.Equal(t, monitor.ShapeSphere, st.String(monitor.TagShape, ""), "device %d", d.ID())
	}
}
