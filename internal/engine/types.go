package engine

import (
	"fmt"
	"math"
)

// Time is a simulated timestamp in seconds. There is no global clock: each
// device only ever compares times produced by its own wake sequence and the
// receipt times recorded by its own retention store.
type Time float64

// DeviceID identifies a device. IDs are unique and stable for the device's
// lifetime.
type DeviceID uint32

// Position is a 2D coordinate supplied by the movement collaborator.
type Position struct {
	X float64
	Y float64
}

// DistanceTo returns the Euclidean distance to another position.
func (p Position) DistanceTo(q Position) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Hypot(dx, dy)
}

func (p Position) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", p.X, p.Y)
}

// Storage is a device's mapping from named tags to scalar values. It is the
// surface shared with the external collaborators: the movement subsystem
// writes speed and radius, the program writes display slots and the monitor
// verdict, and the sampler reads them back.
type Storage map[string]any

// Set stores a value under a tag, overwriting any previous value.
func (s Storage) Set(tag string, v any) {
	s[tag] = v
}

// Float returns the float64 stored under tag, or def if the tag is absent
// or holds a different type.
func (s Storage) Float(tag string, def float64) float64 {
	if v, ok := s[tag].(float64); ok {
		return v
	}
	return def
}

// Bool returns the bool stored under tag, or def if the tag is absent or
// holds a different type.
func (s Storage) Bool(tag string, def bool) bool {
	if v, ok := s[tag].(bool); ok {
		return v
	}
	return def
}

// String returns the string stored under tag, or def if the tag is absent
// or holds a different type.
func (s Storage) String(tag string, def string) string {
	if v, ok := s[tag].(string); ok {
		return v
	}
	return def
}
