package engine

// Context is the per-round view handed to the program body. It gives access
// to the device's identity, storage and recurrence cells, and to the
// retention snapshot taken at round start. A Context is valid only for the
// duration of one round and must not be retained.
type Context struct {
	dev       *Device
	now       Time
	elapsed   Time
	neighbors []neighborView // ascending id, self excluded
	out       map[string]any
	scope     any
}

// neighborView is one visible neighbor: its retained export plus the
// distance between the receiver's current position and the position the
// export was produced at.
type neighborView struct {
	id     DeviceID
	dist   float64
	export *Export
}

// Self returns the id of the device executing the round.
func (c *Context) Self() DeviceID { return c.dev.id }

// Now returns the wake time of the current round.
func (c *Context) Now() Time { return c.now }

// Elapsed returns the time since the device's previous round, or 0 on its
// first round.
func (c *Context) Elapsed() Time { return c.elapsed }

// FirstRound reports whether this is the device's first-ever round.
func (c *Context) FirstRound() bool { return c.dev.rounds == 0 }

// NeighborCount returns the number of visible neighbors, self excluded.
func (c *Context) NeighborCount() int { return len(c.neighbors) }

// Storage returns the device's tag storage.
func (c *Context) Storage() Storage { return c.dev.storage }

// Position returns the device's current position.
func (c *Context) Position() Position { return c.dev.pos }
