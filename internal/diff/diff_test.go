package diff

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relentless-eng/relentless/internal/destinations"
)

func bodies(pairs map[string]string) *destinations.Map[[]byte] {
	m := destinations.New[[]byte]()
	// deterministic order for the test
	for _, name := range []string{"actual", "expect"} {
		if v, ok := pairs[name]; ok {
			m.Set(name, []byte(v))
		}
	}
	return m
}

func TestIgnoreListSuppressesDiff(t *testing.T) {
	b := bodies(map[string]string{
		"actual": `{"a":1,"t":"2024"}`,
		"expect": `{"a":1,"t":"2025"}`,
	})

	pass, msgs, err := Run(b, Config{Ignore: []string{"/t"}})
	require.NoError(t, err)
	require.True(t, pass)
	require.Empty(t, msgs)
}

func TestDiffWithoutIgnoreFails(t *testing.T) {
	b := bodies(map[string]string{
		"actual": `{"a":1,"t":"2024"}`,
		"expect": `{"a":1,"t":"2025"}`,
	})

	pass, msgs, err := Run(b, Config{})
	require.NoError(t, err)
	require.False(t, pass)
	require.Len(t, msgs, 1)
	require.Equal(t, "/t", msgs[0].Path)
}

func TestPatchRemovesFieldBeforeCompare(t *testing.T) {
	b := bodies(map[string]string{
		"actual": `{"x":1,"t":"now"}`,
		"expect": `{"x":1}`,
	})

	patch := &PatchSpec{
		PerDestination: map[string]json.RawMessage{
			"actual": []byte(`[{"op":"remove","path":"/t"}]`),
		},
	}

	pass, msgs, err := Run(b, Config{Patch: patch})
	require.NoError(t, err)
	require.True(t, pass)
	require.Empty(t, msgs)
}

func TestIdenticalBodiesPass(t *testing.T) {
	b := bodies(map[string]string{
		"actual": `{"a":[1,2,3]}`,
		"expect": `{"a":[1,2,3]}`,
	})

	pass, msgs, err := Run(b, Config{})
	require.NoError(t, err)
	require.True(t, pass)
	require.Empty(t, msgs)
}
