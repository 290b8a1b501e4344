package engine

import (
	"container/heap"
	"context"
	"log/slog"
	"math/rand"
	"sort"
)

// Config carries the network-wide parameters of a simulation. Everything
// here is validated before any round executes.
type Config struct {
	// CommunicationRange is the fixed radio range: a freshly produced
	// export is delivered to every other device within this distance of
	// the producer.
	CommunicationRange float64

	// Retention bounds the lifetime of received exports.
	Retention Retention

	// Schedule drives every device's private wake sequence.
	Schedule Schedule

	// Seed derives the per-device random streams. The same seed
	// reproduces the same simulation.
	Seed int64
}

// Validate rejects malformed configuration.
func (c Config) Validate() error {
	if c.CommunicationRange <= 0 {
		return ErrNonPositiveRange
	}
	if err := c.Retention.Validate(); err != nil {
		return err
	}
	if c.Schedule == nil {
		return ErrNilSchedule
	}
	return nil
}

// Mover is the movement collaborator: it owns positions between rounds.
// The engine calls it once at the start of each round with the time elapsed
// since the device's previous round and adopts the returned position.
type Mover interface {
	Move(d *Device, now Time, elapsed Time) Position
}

// Observer is the logging collaborator: called at a fixed sampling period
// with the current device population, typically to fold the monitor results
// into a network-wide mean.
type Observer func(now Time, devices []*Device)

// Option configures optional network collaborators.
type Option func(*Network)

// WithMover installs the movement collaborator.
func WithMover(m Mover) Option {
	return func(n *Network) { n.mover = m }
}

// WithObserver installs the logging collaborator, sampled every period
// starting at time 0.
func WithObserver(period Time, fn Observer) Option {
	return func(n *Network) {
		n.observePeriod = period
		n.observer = fn
	}
}

// Network owns the devices and the single-writer event loop that drives
// their rounds. All mutation happens in the Run loop goroutine; devices
// communicate only through sealed exports delivered into each other's
// retention stores between rounds.
type Network struct {
	cfg     Config
	program *Program

	mover         Mover
	observer      Observer
	observePeriod Time

	devices map[DeviceID]*Device
	events  eventHeap
	seq     int64
}

// New creates a network for the given configuration and program.
func New(cfg Config, program *Program, opts ...Option) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if program == nil || program.body == nil {
		return nil, ErrNilProgram
	}

	n := &Network{
		cfg:     cfg,
		program: program,
		devices: make(map[DeviceID]*Device),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.observer != nil && n.observePeriod <= 0 {
		return nil, ErrNonPositivePeriod
	}
	return n, nil
}

// AddDevice registers a device and schedules its first wake. Until that
// first wake fires the device has no state and produces no exports.
func (n *Network) AddDevice(id DeviceID, pos Position, storage Storage) error {
	if _, dup := n.devices[id]; dup {
		return ErrDuplicateDevice
	}
	rng := rand.New(rand.NewSource(deviceSeed(n.cfg.Seed, id)))
	d := newDevice(id, pos, storage, n.cfg.Retention, rng)
	n.devices[id] = d
	n.push(n.cfg.Schedule.First(rng), id, false)
	slog.Debug("device added", "device", id, "position", pos)
	return nil
}

// RemoveDevice stops scheduling a device immediately. Exports it already
// produced remain valid in receivers' stores until their own expiry.
func (n *Network) RemoveDevice(id DeviceID) {
	if _, ok := n.devices[id]; ok {
		delete(n.devices, id)
		slog.Debug("device removed", "device", id)
	}
}

// Device returns the device with the given id, if present.
func (n *Network) Device(id DeviceID) (*Device, bool) {
	d, ok := n.devices[id]
	return d, ok
}

// Devices returns the current device population in ascending id order.
func (n *Network) Devices() []*Device {
	out := make([]*Device, 0, len(n.devices))
	for _, d := range n.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// PositionOf returns the current position of a device, if present. Exposed
// for the movement collaborator, which may need other devices' positions
// (followers chasing a group leader).
func (n *Network) PositionOf(id DeviceID) (Position, bool) {
	d, ok := n.devices[id]
	if !ok {
		return Position{}, false
	}
	return d.pos, true
}

// Run processes wake events in time order until the simulated clock passes
// until, the event heap drains, or the context is cancelled.
//
// Must be called from exactly one goroutine: all round execution, export
// delivery and observer sampling happen here, which is what makes per-device
// round execution atomic and the whole simulation reproducible.
func (n *Network) Run(ctx context.Context, until Time) error {
	if n.observer != nil {
		n.push(0, 0, true)
	}

	for n.events.Len() > 0 {
		select {
		case <-ctx.Done():
			slog.Info("network stopping: context cancelled")
			return ctx.Err()
		default:
		}

		ev := heap.Pop(&n.events).(event)
		if ev.at > until {
			break
		}

		if ev.observe {
			n.observer(ev.at, n.Devices())
			n.push(ev.at+n.observePeriod, 0, true)
			continue
		}

		d, ok := n.devices[ev.device]
		if !ok {
			// Removed after this wake was scheduled.
			continue
		}
		n.runRound(d, ev.at)

		iv := n.cfg.Schedule.Interval(d.rng)
		if iv <= 0 {
			iv = minInterval
		}
		n.push(ev.at+iv, d.id, false)
	}
	return nil
}

// minInterval keeps wake sequences strictly increasing even if a schedule
// draws an interval of exactly zero.
const minInterval Time = 1e-9

// runRound executes one atomic round of a single device: move, snapshot,
// evaluate, seal, broadcast, advance.
func (n *Network) runRound(d *Device, now Time) {
	elapsed := now - d.lastWake
	if d.rounds == 0 {
		elapsed = 0
	}
	if n.mover != nil {
		d.pos = n.mover.Move(d, now, elapsed)
	}

	snap := d.retention.Snapshot(now)
	views := make([]neighborView, 0, len(snap))
	for _, e := range snap {
		views = append(views, neighborView{
			id:     e.Neighbor,
			dist:   d.pos.DistanceTo(e.Export.Position()),
			export: e.Export,
		})
	}

	rctx := &Context{
		dev:       d,
		now:       now,
		elapsed:   elapsed,
		neighbors: views,
		out:       make(map[string]any),
	}
	n.program.body(rctx)

	export := NewExport(d.id, now, d.pos, rctx.out)
	for _, other := range n.devices {
		if other.id == d.id {
			continue
		}
		if d.pos.DistanceTo(other.pos) <= n.cfg.CommunicationRange {
			other.retention.Record(d.id, export, now)
		}
	}

	d.completeRound(now)
	slog.Debug("round complete",
		"device", d.id,
		"round", d.rounds,
		"time", float64(now),
		"neighbors", len(views),
	)
}

func (n *Network) push(at Time, id DeviceID, observe bool) {
	n.seq++
	heap.Push(&n.events, event{at: at, seq: n.seq, device: id, observe: observe})
}

// deviceSeed mixes the scenario seed with a device id so each device gets
// an independent, reproducible random stream.
func deviceSeed(seed int64, id DeviceID) int64 {
	const mix uint64 = 0x9e3779b97f4a7c15
	return int64(uint64(seed) ^ (uint64(id)+1)*mix)
}

// event is one entry of the wake heap: a device round or an observer
// sample. Ties on time break by insertion order.
type event struct {
	at      Time
	seq     int64
	device  DeviceID
	observe bool
}

type eventHeap []event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	*h = old[:n-1]
	return ev
}
