package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDestinationFlag(t *testing.T) {
	name, uri, err := ParseDestinationFlag("actual=http://localhost:8080")
	require.NoError(t, err)
	require.Equal(t, "actual", name)
	require.Equal(t, "http://localhost:8080", uri)

	_, _, err = ParseDestinationFlag("no-equals-sign")
	require.Error(t, err)
}

func TestParsePercentileFlag(t *testing.T) {
	v, err := ParsePercentileFlag("99.9")
	require.NoError(t, err)
	require.InDelta(t, 99.9, v, 1e-9)

	_, err = ParsePercentileFlag("not-a-number")
	require.Error(t, err)

	_, err = ParsePercentileFlag("150")
	require.Error(t, err)
}

func TestParseLayer(t *testing.T) {
	l, err := ParseLayer("repeats")
	require.NoError(t, err)
	require.Equal(t, LayerRepeats, l)

	_, err = ParseLayer("bogus")
	require.Error(t, err)
}

func TestOverlayDestinations(t *testing.T) {
	opts := NewCLIOptions()
	opts.DestinationOverlay["actual"] = "http://override:9000"

	base := map[string]string{"actual": "http://localhost:8080", "expect": "http://localhost:8081"}
	out := opts.OverlayDestinations(base)
	require.Equal(t, "http://override:9000", out["actual"])
	require.Equal(t, "http://localhost:8081", out["expect"])
}

func TestDefaults(t *testing.T) {
	opts := NewCLIOptions()
	require.Equal(t, DefaultPercentiles(), opts.Percentiles)
	require.True(t, opts.Measure[LayerConfigs])
	require.Empty(t, opts.Sequential)
}
