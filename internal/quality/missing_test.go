package quality

import (
	"math"
	"testing"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/stretchr/testify/assert"
)

func TestIsMissing(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want bool
	}{
		{"nil", nil, true},
		{"nan", math.NaN(), true},
		{"nan32", float32(math.NaN()), true},
		{"empty string", "", true},
		{"blank string", " \t\n", true},
		{"zero", 0.0, false},
		{"int zero", 0, false},
		{"negative", -3.5, false},
		{"false", false, false},
		{"true", true, false},
		{"text", " a ", false},
		{"infinity", math.Inf(1), false},
		{"slice", []int{}, false},
		{"map", map[string]any{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsMissing(tc.in))
		})
	}
}

func TestMissingAtTreatsAbsentKeyAsMissing(t *testing.T) {
	row := dataset.Row{"a": 1.0}
	assert.False(t, MissingAt(row, "a"))
	assert.True(t, MissingAt(row, "b"))
	assert.True(t, MissingAt(nil, "a"))
}

func TestCellReportsPresence(t *testing.T) {
	row := dataset.Row{"a": nil, "b": "x"}
	v, ok := Cell(row, "a")
	assert.True(t, ok)
	assert.Nil(t, v)
	v, ok = Cell(row, "b")
	assert.True(t, ok)
	assert.Equal(t, "x", v)
	_, ok = Cell(row, "c")
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{1.0, "1"},
		{1.5, "1.5"},
		{math.Copysign(0, -1), "0"},
		{float32(0.1), "0.1"},
		{42, "42"},
		{int64(-7), "-7"},
		{uint8(9), "9"},
		{"  x  ", "x"},
		{true, "true"},
		{1e22, "1e+22"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.in), "Normalize(%v)", tc.in)
	}
}

func TestMissingIndicators(t *testing.T) {
	rows := []dataset.Row{{"a": nil, "b": 1.0}, {"a": "x"}}
	got := MissingIndicators(rows, []string{"a", "b"})
	assert.Equal(t, [][]bool{{true, false}, {false, true}}, got)
}
