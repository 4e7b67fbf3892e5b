package coalesce

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZeroLaws(t *testing.T) {
	require.Equal(t, 5, Zero(5, 0)) // right-zero: coalesce(x, zero) == x
	require.Equal(t, 7, Zero(0, 7)) // left-zero: coalesce(zero, y) == y
	require.Equal(t, 3, Zero(3, 3)) // idempotence
	require.Equal(t, 9, Zero(3, 9)) // override wins when non-zero
}

func TestValuePointers(t *testing.T) {
	base := 1
	override := 2
	require.Equal(t, &override, Value(&base, &override))
	require.Equal(t, &base, Value(&base, (*int)(nil)))
}

func TestSliceAndMap(t *testing.T) {
	require.Equal(t, []string{"a"}, Slice([]string{"a"}, nil))
	require.Equal(t, []string{"b"}, Slice([]string{"a"}, []string{"b"}))
	require.Equal(t, map[string]int{"a": 1}, Map(map[string]int{"a": 1}, nil))
}
