package main

import (
	"github.com/relentless-eng/relentless/internal/config"
	"github.com/relentless-eng/relentless/internal/destinations"
)

// overlaidDestinations applies a CLIOptions' --destination overlay on top
// of a worker's config-decoded destinations, preserving the config's
// declared order and appending any CLI-only names in flag order after it.
func overlaidDestinations(base *destinations.Map[string], opts *config.CLIOptions) *destinations.Map[string] {
	merged := opts.OverlayDestinations(toStringMap(base))

	out := destinations.New[string]()
	for _, name := range base.Names() {
		if uri, ok := merged[name]; ok {
			out.Set(name, uri)
			delete(merged, name)
		}
	}
	for _, name := range cliOnlyOrder(opts, merged) {
		if uri, ok := merged[name]; ok {
			out.Set(name, uri)
		}
	}
	return out
}

func toStringMap(m *destinations.Map[string]) map[string]string {
	out := make(map[string]string, m.Len())
	for _, name := range m.Names() {
		v, _ := m.Get(name)
		out[name] = v
	}
	return out
}

// cliOnlyOrder returns the names in remaining (destinations the base config
// never declared) in the order they were supplied via --destination flags.
func cliOnlyOrder(opts *config.CLIOptions, remaining map[string]string) []string {
	var out []string
	for _, name := range opts.DestinationOverlayOrder {
		if _, ok := remaining[name]; ok {
			out = append(out, name)
		}
	}
	return out
}
