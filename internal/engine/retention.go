package engine

import "sort"

// Retention configures the bounded-lifetime window for received exports.
// MaxAge is the maximum age at which an export still counts for
// aggregation; Sweep is the granularity at which expired entries are
// eagerly purged. Between sweeps, Snapshot still excludes expired entries
// lazily, so visibility never depends on sweep timing.
type Retention struct {
	MaxAge Time
	Sweep  Time
}

// Validate rejects malformed retention windows. Called at startup, before
// any round executes.
func (r Retention) Validate() error {
	if r.MaxAge <= 0 {
		return ErrNonPositiveMaxAge
	}
	if r.Sweep <= 0 {
		return ErrNonPositiveSweep
	}
	if r.Sweep > r.MaxAge {
		return ErrSweepExceedsMaxAge
	}
	return nil
}

// RetainedExport is one visible entry of a retention snapshot.
type RetainedExport struct {
	Neighbor   DeviceID
	Export     *Export
	ReceivedAt Time
}

// RetentionStore holds, per neighbor, the most recent export received from
// that neighbor tagged with its receipt time. It is the system's sole
// mechanism for dealing with unreliable connectivity: there is no
// acknowledgement, retransmission or ordering between devices, and
// staleness is bounded purely by age.
//
// A store is owned and mutated exclusively by its device's own round
// executions; in this single-writer engine the delivery of a freshly
// produced export is performed by the network loop between rounds.
type RetentionStore struct {
	window    Retention
	entries   map[DeviceID]retainedEntry
	lastSweep Time
}

type retainedEntry struct {
	export     *Export
	receivedAt Time
}

// NewRetentionStore creates an empty store with the given (already
// validated) window.
func NewRetentionStore(window Retention) *RetentionStore {
	return &RetentionStore{
		window:  window,
		entries: make(map[DeviceID]retainedEntry),
	}
}

// Record inserts the export received from neighbor at time now, overwriting
// any prior entry from the same neighbor. The older entry becomes
// unobservable immediately, so no neighbor is ever counted twice.
func (s *RetentionStore) Record(neighbor DeviceID, export *Export, now Time) {
	s.entries[neighbor] = retainedEntry{export: export, receivedAt: now}
	if now-s.lastSweep >= s.window.Sweep {
		s.sweep(now)
	}
}

// Snapshot returns the visible entries at time now: exactly those with
// now - receivedAt <= MaxAge, in ascending neighbor id order. The result is
// deterministic given the store contents and now.
func (s *RetentionStore) Snapshot(now Time) []RetainedExport {
	visible := make([]RetainedExport, 0, len(s.entries))
	for id, e := range s.entries {
		if now-e.receivedAt <= s.window.MaxAge {
			visible = append(visible, RetainedExport{
				Neighbor:   id,
				Export:     e.export,
				ReceivedAt: e.receivedAt,
			})
		}
	}
	sort.Slice(visible, func(i, j int) bool {
		return visible[i].Neighbor < visible[j].Neighbor
	})
	return visible
}

// Len returns the number of stored entries, expired or not. Used by tests
// to observe sweep behavior.
func (s *RetentionStore) Len() int {
	return len(s.entries)
}

// sweep drops entries older than MaxAge.
func (s *RetentionStore) sweep(now Time) {
	for id, e := range s.entries {
		if now-e.receivedAt > s.window.MaxAge {
			delete(s.entries, id)
		}
	}
	s.lastSweep = now
}
