package engine

import "sort"

// Export is the immutable snapshot of everything a device makes visible to
// its neighbors during one round: the values it shared, plus the producer
// identity, production time and position needed by receivers to expire the
// entry and compute distances.
//
// Exports are produced anew every round and superseded, never mutated. A
// receiver keeps its own reference until expiry; the producer may discard
// its copy once broadcast.
type Export struct {
	producer   DeviceID
	producedAt Time
	position   Position
	fields     map[string]any
}

// NewExport seals a round's shared values into an Export. The field map is
// copied so later writes by the caller cannot leak into receivers.
func NewExport(producer DeviceID, producedAt Time, pos Position, fields map[string]any) *Export {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &Export{
		producer:   producer,
		producedAt: producedAt,
		position:   pos,
		fields:     copied,
	}
}

// Producer returns the id of the device that produced this export.
func (e *Export) Producer() DeviceID { return e.producer }

// ProducedAt returns the simulated time at which the export was sealed.
func (e *Export) ProducedAt() Time { return e.producedAt }

// Position returns the producer's position at production time.
func (e *Export) Position() Position { return e.position }

// Field returns the value shared under name, if any. A neighbor that did
// not share the field (for example, one still running an older program) is
// simply not aligned on it; callers skip such neighbors.
func (e *Export) Field(name string) (any, bool) {
	v, ok := e.fields[name]
	return v, ok
}

// FieldNames returns the names of all shared fields in ascending order.
func (e *Export) FieldNames() []string {
	names := make([]string, 0, len(e.fields))
	for name := range e.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
