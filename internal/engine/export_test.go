package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportIsolatedFromCaller(t *testing.T) {
	fields := map[string]any{"warning": true}
	e := NewExport(7, 1.5, Position{X: 10, Y: 20}, fields)

	// Mutating the source map after sealing must not affect the export.
	fields["warning"] = false
	fields["extra"] = 1

	v, ok := e.Field("warning")
	require.True(t, ok)
	assert.Equal(t, true, v)
	_, ok = e.Field("extra")
	assert.False(t, ok)
}

func TestExportAccessors(t *testing.T) {
	e := NewExport(7, 1.5, Position{X: 3, Y: 4}, map[string]any{
		"b": 2,
		"a": 1,
	})

	assert.Equal(t, DeviceID(7), e.Producer())
	assert.Equal(t, Time(1.5), e.ProducedAt())
	assert.Equal(t, Position{X: 3, Y: 4}, e.Position())
	assert.Equal(t, []string{"a", "b"}, e.FieldNames())

	_, ok := e.Field("missing")
	assert.False(t, ok)
}
