package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"nil", nil, "null"},
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative int", int64(-100), "-100"},
		{"uint", uint8(7), "7"},
		{"whole float", 3.0, "3"},
		{"bool", true, "true"},
		{"empty array", []any{}, "[]"},
		{"nil slice", []int(nil), "null"},
		{"empty object", map[string]any{}, "{}"},
		{"array", []int{1, 2, 3}, "[1,2,3]"},
		{"nested", map[string]any{"foo": map[string]any{"foo": 2, "baz": 1}, "bar": 5}, `{"bar":5,"foo":{"baz":1,"foo":2}}`},
		{"pointer", func() *int { n := 9; return &n }(), "9"},
		{"no html escaping", "<a&b>", `"<a&b>"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Marshal(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalRejects(t *testing.T) {
	for name, input := range map[string]any{
		"fractional float": 1.5,
		"func":             func() {},
		"int keys":         map[int]any{1: 2},
		"nested func":      map[string]any{"a": []any{func() {}}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Marshal(input)
			assert.Error(t, err)
		})
	}
}

func TestMarshalUTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as a surrogate pair starting 0xD83D, which sorts
	// before U+FF61 in UTF-16 but after it in UTF-8.
	obj := map[string]any{"\uff61": 1, "\U0001F600": 2}
	result, err := Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\uff61\":1}", string(result))
}

func TestMarshalNFC(t *testing.T) {
	result, err := Marshal("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(result))
}

func TestMarshalLineSeparatorsNotEscaped(t *testing.T) {
	result, err := Marshal("a\u2028b\u2029c")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(result))

	result, err = Marshal(`\u2028`)
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(result), "escaped backslash stays escaped")
}

func TestHash(t *testing.T) {
	a, err := StateHash(map[string]any{"foo": 1, "bar": 2})
	require.NoError(t, err)
	b, err := StateHash(map[string]any{"bar": 2, "foo": 1.0})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	c, err := Hash(DomainPayload, map[string]any{"foo": 1, "bar": 2})
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "domains separate equal data")

	_, err = StateHash(0.5)
	assert.Error(t, err)
}
