package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalScalars(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"string", "hello", `"hello"`},
		{"bool true", true, `true`},
		{"bool false", false, `false`},
		{"int", 42, `42`},
		{"int64", int64(-7), `-7`},
		{"uint32", uint32(100), `100`},
		{"empty array", []any{}, `[]`},
		{"array", []any{1, "a", true}, `[1,"a",true]`},
		{"empty object", map[string]any{}, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonicalSortsKeys(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"zebra":  1,
		"apple":  2,
		"mango":  3,
		"banana": map[string]any{"y": 1, "x": 2},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"apple":2,"banana":{"x":2,"y":1},"mango":3,"zebra":1}`, string(got))
}

func TestMarshalCanonicalRejectsFloatsAndNulls(t *testing.T) {
	_, err := MarshalCanonical(3.14)
	assert.Error(t, err)

	_, err = MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"v": 1.5})
	assert.Error(t, err)

	_, err = MarshalCanonical([]any{nil})
	assert.Error(t, err)
}

func TestMarshalCanonicalEscapes(t *testing.T) {
	got, err := MarshalCanonical("line\nbreak\t\"quoted\"\\x")
	require.NoError(t, err)
	assert.Equal(t, `"line\nbreak\t\"quoted\"\\x"`, string(got))

	// Control characters take the \u form.
	got, err = MarshalCanonical(string(rune(0x01)))
	require.NoError(t, err)
	assert.Equal(t, `"\u0001"`, string(got))
}

func TestMarshalCanonicalNormalizesNFC(t *testing.T) {
	// e + combining acute normalizes to the precomposed form.
	decomposed := "é"
	composed := "é"

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(composed)
	require.NoError(t, err)
	assert.Equal(t, b, a)
}

func TestDigestStable(t *testing.T) {
	v := map[string]any{"b": 1, "a": 2}
	d1, err := Digest(v)
	require.NoError(t, err)
	d2, err := Digest(map[string]any{"a": 2, "b": 1})
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 64)
}

func TestMillis(t *testing.T) {
	assert.Equal(t, int64(0), Millis(0))
	assert.Equal(t, int64(1000), Millis(1))
	assert.Equal(t, int64(500), Millis(0.5))
	assert.Equal(t, int64(1), Millis(0.0005))
	assert.Equal(t, int64(0), Millis(0.0004))
	assert.Equal(t, int64(-1500), Millis(-1.5))
	assert.Equal(t, int64(333), Millis(1.0/3))
}
