package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relentless-eng/relentless/internal/errs"
)

// Layer names the three scheduler fan-out levels a --sequential/--measure
// flag can target.
type Layer string

const (
	LayerConfigs   Layer = "configs"
	LayerTestcases Layer = "testcases"
	LayerRepeats   Layer = "repeats"
)

// ParseLayer validates a --sequential/--measure flag value.
func ParseLayer(s string) (Layer, error) {
	switch Layer(s) {
	case LayerConfigs, LayerTestcases, LayerRepeats:
		return Layer(s), nil
	default:
		return "", &errs.InterfaceError{Msg: fmt.Sprintf("unknown layer %q, want one of configs|testcases|repeats", s)}
	}
}

// DefaultMeasure emits only the outermost (Configs) aggregate.
func DefaultMeasure() map[Layer]bool {
	return map[Layer]bool{LayerConfigs: true}
}

// DefaultPercentiles is the percentile set reported when no --percentile
// flag is given.
func DefaultPercentiles() []float64 {
	return []float64{50, 90, 99}
}

// CLIOptions holds the run-wide knobs, independent of any one config
// file's contents.
type CLIOptions struct {
	Files                   []string
	DestinationOverlay      map[string]string
	DestinationOverlayOrder []string // names in --destination flag order, for deterministic CLI-only appends
	Strict                  bool
	NgOnly                  bool
	NoColor                 bool
	ReportFormat            string // "null" | "console" | "markdown"
	OutputRecord            string
	Sequential              map[Layer]bool
	Measure                 map[Layer]bool
	Percentiles             []float64
}

// NewCLIOptions returns CLIOptions populated with the defaults: sequential
// empty (everything concurrent), measure {configs}, percentiles
// {50, 90, 99}.
func NewCLIOptions() *CLIOptions {
	return &CLIOptions{
		DestinationOverlay: map[string]string{},
		ReportFormat:       "console",
		Sequential:         map[Layer]bool{},
		Measure:            DefaultMeasure(),
		Percentiles:        DefaultPercentiles(),
	}
}

// AddDestinationOverride records one parsed --destination flag, preserving
// first-seen flag order for names the base config never declares.
func (c *CLIOptions) AddDestinationOverride(name, uri string) {
	if _, exists := c.DestinationOverlay[name]; !exists {
		c.DestinationOverlayOrder = append(c.DestinationOverlayOrder, name)
	}
	c.DestinationOverlay[name] = uri
}

// ParseDestinationFlag parses one `--destination name=uri` value.
func ParseDestinationFlag(s string) (name, uri string, err error) {
	i := strings.IndexByte(s, '=')
	if i < 0 {
		return "", "", &errs.InterfaceError{Msg: fmt.Sprintf("malformed --destination %q, expected name=uri", s)}
	}
	return s[:i], s[i+1:], nil
}

// ParsePercentileFlag parses one `--percentile` value, rejecting NaN and
// out-of-range values.
func ParsePercentileFlag(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != v || v <= 0 || v >= 100 {
		return 0, &errs.InterfaceError{Msg: fmt.Sprintf("invalid percentile %q, want a number in (0, 100)", s)}
	}
	return v, nil
}

// OverlayDestinations applies --destination overrides on top of a
// worker's decoded destinations: present names are replaced, absent
// names are added. The result is a plain map and carries no order;
// DestinationOverlayOrder keeps the flag order for callers that need it.
func (c *CLIOptions) OverlayDestinations(base map[string]string) map[string]string {
	if len(c.DestinationOverlay) == 0 {
		return base
	}
	out := make(map[string]string, len(base)+len(c.DestinationOverlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range c.DestinationOverlay {
		out[k] = v
	}
	return out
}
