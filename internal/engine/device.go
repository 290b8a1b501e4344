package engine

import "math/rand"

// Device is one participant of the network: a stable identity, a current
// position, tag storage, a retention store for neighbor exports, and the
// recurrence cells of the program evaluated on it.
//
// A device's retention store and cells are mutated only by that device's
// own round executions, which the network runs strictly sequentially; a
// device never runs two rounds concurrently with itself.
type Device struct {
	id      DeviceID
	pos     Position
	storage Storage

	retention *RetentionStore

	// prevCells holds the cells written by the immediately preceding
	// round; curCells collects this round's writes. Swapped on round
	// completion, so unwritten cells age out after one round.
	prevCells map[cellKey]any
	curCells  map[cellKey]any

	rng      *rand.Rand
	rounds   int64
	lastWake Time
	removed  bool
}

func newDevice(id DeviceID, pos Position, storage Storage, window Retention, rng *rand.Rand) *Device {
	if storage == nil {
		storage = make(Storage)
	}
	return &Device{
		id:        id,
		pos:       pos,
		storage:   storage,
		retention: NewRetentionStore(window),
		prevCells: make(map[cellKey]any),
		curCells:  make(map[cellKey]any),
		rng:       rng,
	}
}

// ID returns the device's stable identity.
func (d *Device) ID() DeviceID { return d.id }

// Position returns the device's current position.
func (d *Device) Position() Position { return d.pos }

// Storage returns the device's tag storage.
func (d *Device) Storage() Storage { return d.storage }

// Rounds returns the number of rounds the device has completed. A device
// with zero completed rounds has produced no exports and, from the
// network's point of view, does not exist yet.
func (d *Device) Rounds() int64 { return d.rounds }

// completeRound swaps the cell maps and advances the round counters.
func (d *Device) completeRound(now Time) {
	d.prevCells = d.curCells
	d.curCells = make(map[cellKey]any)
	d.rounds++
	d.lastWake = now
}
