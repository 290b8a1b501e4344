package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetentionValidate(t *testing.T) {
	tests := []struct {
		name    string
		window  Retention
		wantErr error
	}{
		{"valid", Retention{MaxAge: 3, Sweep: 1}, nil},
		{"sweep equals max age", Retention{MaxAge: 2, Sweep: 2}, nil},
		{"zero max age", Retention{MaxAge: 0, Sweep: 1}, ErrNonPositiveMaxAge},
		{"negative max age", Retention{MaxAge: -1, Sweep: 1}, ErrNonPositiveMaxAge},
		{"zero sweep", Retention{MaxAge: 3, Sweep: 0}, ErrNonPositiveSweep},
		{"sweep exceeds max age", Retention{MaxAge: 1, Sweep: 2}, ErrSweepExceedsMaxAge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.window.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRetentionStoreOverwrite(t *testing.T) {
	s := NewRetentionStore(Retention{MaxAge: 3, Sweep: 1})

	first := NewExport(2, 0, Position{}, map[string]any{"v": 1})
	second := NewExport(2, 0.5, Position{}, map[string]any{"v": 2})
	s.Record(2, first, 0)
	s.Record(2, second, 0.5)

	snap := s.Snapshot(0.6)
	require.Len(t, snap, 1)
	v, ok := snap[0].Export.Field("v")
	require.True(t, ok)
	assert.Equal(t, 2, v, "newer export must replace the older one")
}

func TestRetentionStoreExpiry(t *testing.T) {
	s := NewRetentionStore(Retention{MaxAge: 3, Sweep: 1})

	s.Record(2, NewExport(2, 0, Position{}, nil), 0)
	s.Record(5, NewExport(5, 2, Position{}, nil), 2)

	// Exactly at MaxAge the entry is still visible.
	snap := s.Snapshot(3)
	require.Len(t, snap, 2)

	// Just past MaxAge the older entry disappears from snapshots even
	// though no sweep ran at that time.
	snap = s.Snapshot(3.5)
	require.Len(t, snap, 1)
	assert.Equal(t, DeviceID(5), snap[0].Neighbor)
}

func TestRetentionStoreSnapshotOrder(t *testing.T) {
	s := NewRetentionStore(Retention{MaxAge: 10, Sweep: 1})
	for _, id := range []DeviceID{9, 3, 7, 1} {
		s.Record(id, NewExport(id, 0, Position{}, nil), 0)
	}

	snap := s.Snapshot(1)
	require.Len(t, snap, 4)
	for i, want := range []DeviceID{1, 3, 7, 9} {
		assert.Equal(t, want, snap[i].Neighbor)
	}
}

func TestRetentionStoreSweepPurges(t *testing.T) {
	s := NewRetentionStore(Retention{MaxAge: 3, Sweep: 1})

	s.Record(2, NewExport(2, 0, Position{}, nil), 0)
	assert.Equal(t, 1, s.Len())

	// Recording far past the expiry triggers an eager sweep of the stale
	// entry.
	s.Record(5, NewExport(5, 10, Position{}, nil), 10)
	assert.Equal(t, 1, s.Len())

	snap := s.Snapshot(10)
	require.Len(t, snap, 1)
	assert.Equal(t, DeviceID(5), snap[0].Neighbor)
}
