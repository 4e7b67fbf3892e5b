package destinations

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapOrderPreserved(t *testing.T) {
	m := New[int]()
	m.Set("expect", 1)
	m.Set("actual", 2)
	m.Set("control", 3)

	require.Equal(t, []string{"expect", "actual", "control"}, m.Names())
	v, ok := m.Get("actual")
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestMap2KeepsOrder(t *testing.T) {
	m := New[int]()
	m.Set("actual", 1)
	m.Set("expect", 2)

	doubled := Map2(m, func(_ string, v int) int { return v * 2 })
	require.Equal(t, m.Names(), doubled.Names())
	require.Equal(t, []int{2, 4}, doubled.Values())
}

func TestTransposeKeyed(t *testing.T) {
	d := New[map[string]int]()
	d.Set("actual", map[string]int{"a": 1, "b": 2})
	d.Set("expect", map[string]int{"a": 1, "b": 3, "c": 4})

	byKey := TransposeKeyed(d)
	require.Len(t, byKey, 3)

	a := byKey["a"]
	require.Equal(t, []string{"actual", "expect"}, a.Names())
	av, ok := a.Get("actual")
	require.True(t, ok)
	require.Equal(t, 1, av)

	bv, ok := byKey["b"].Get("expect")
	require.True(t, ok)
	require.Equal(t, 3, bv)

	// A key absent from some destination yields a shorter per-key map.
	require.Equal(t, 1, byKey["c"].Len())
}
