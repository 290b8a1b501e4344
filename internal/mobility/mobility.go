// Package mobility implements the group-walk movement collaborator.
//
// Devices move in groups carved out of the id space: the lowest id of each
// group is the leader and performs a random-waypoint walk across the arena;
// the other members chase the leader up to a fixed per-device offset drawn
// once within the group radius. The engine is independent of any movement
// heuristic: it only adopts the position this package returns at the start
// of each round.
package mobility

import (
	"math/rand"

	"github.com/roach88/fieldwatch/internal/engine"
)

// Storage tags read by the walker. The spawner writes them per device:
// speed is the maximum speed in arena units per second, offset the group
// radius the follower offset is drawn from.
const (
	TagSpeed  = "speed"
	TagOffset = "offset"
)

// Arena is the rectangular bounding area devices move in.
type Arena struct {
	Width  float64
	Height float64
}

func (a Arena) clamp(p engine.Position) engine.Position {
	p.X = min(max(p.X, 0), a.Width)
	p.Y = min(max(p.Y, 0), a.Height)
	return p
}

// Config parameterizes the group walk.
type Config struct {
	Arena     Arena
	GroupSize uint32 // leader = uid - uid % GroupSize
	Seed      int64
}

// PositionLookup resolves another device's current position. Followers use
// it to find their leader; it returns false once the leader is removed.
type PositionLookup func(engine.DeviceID) (engine.Position, bool)

// GroupWalk implements engine.Mover.
type GroupWalk struct {
	cfg    Config
	lookup PositionLookup
	states map[engine.DeviceID]*walkState
}

type walkState struct {
	rng    *rand.Rand
	target engine.Position // leader waypoint
	offset engine.Position // follower displacement from the leader
	init   bool
}

// New creates a group walker. lookup must resolve device positions by the
// time Move is first called.
func New(cfg Config, lookup PositionLookup) *GroupWalk {
	return &GroupWalk{
		cfg:    cfg,
		lookup: lookup,
		states: make(map[engine.DeviceID]*walkState),
	}
}

// Move advances one device for the elapsed interval and returns its new
// position, capped at speed * elapsed.
func (g *GroupWalk) Move(d *engine.Device, now, elapsed engine.Time) engine.Position {
	st := g.state(d)
	maxStep := d.Storage().Float(TagSpeed, 0) * float64(elapsed)

	leader := d.ID() - d.ID()%engine.DeviceID(g.cfg.GroupSize)
	if leader == d.ID() {
		return g.moveLeader(d, st, maxStep)
	}
	return g.moveFollower(d, st, leader, maxStep)
}

// moveLeader walks toward the current waypoint, drawing a fresh one
// whenever the waypoint is reached within this round's step.
func (g *GroupWalk) moveLeader(d *engine.Device, st *walkState, maxStep float64) engine.Position {
	if !st.init {
		st.target = g.randomPoint(st.rng)
		st.init = true
	}
	pos := stepToward(d.Position(), st.target, maxStep)
	if pos == st.target {
		st.target = g.randomPoint(st.rng)
	}
	return pos
}

// moveFollower chases the leader up to the device's fixed offset. On the
// first round the follower snaps to its offset target; a follower whose
// leader has been removed walks on as a leader of its own.
func (g *GroupWalk) moveFollower(d *engine.Device, st *walkState, leader engine.DeviceID, maxStep float64) engine.Position {
	lp, ok := g.lookup(leader)
	if !ok {
		return g.moveLeader(d, st, maxStep)
	}
	if !st.init {
		radius := d.Storage().Float(TagOffset, 0)
		st.offset = engine.Position{
			X: (st.rng.Float64()*2 - 1) * radius,
			Y: (st.rng.Float64()*2 - 1) * radius,
		}
		st.init = true
		return g.cfg.Arena.clamp(engine.Position{X: lp.X + st.offset.X, Y: lp.Y + st.offset.Y})
	}
	target := g.cfg.Arena.clamp(engine.Position{X: lp.X + st.offset.X, Y: lp.Y + st.offset.Y})
	return stepToward(d.Position(), target, maxStep)
}

func (g *GroupWalk) state(d *engine.Device) *walkState {
	if st, ok := g.states[d.ID()]; ok {
		return st
	}
	st := &walkState{
		rng: rand.New(rand.NewSource(g.cfg.Seed ^ (int64(d.ID())+1)*0x517cc1b7)),
	}
	g.states[d.ID()] = st
	return st
}

func (g *GroupWalk) randomPoint(rng *rand.Rand) engine.Position {
	return engine.Position{
		X: rng.Float64() * g.cfg.Arena.Width,
		Y: rng.Float64() * g.cfg.Arena.Height,
	}
}

// stepToward moves from toward to, at most maxStep far, arriving exactly
// when the remaining distance fits the step.
func stepToward(from, to engine.Position, maxStep float64) engine.Position {
	d := from.DistanceTo(to)
	if d <= maxStep {
		return to
	}
	f := maxStep / d
	return engine.Position{
		X: from.X + (to.X-from.X)*f,
		Y: from.Y + (to.Y-from.Y)*f,
	}
}
