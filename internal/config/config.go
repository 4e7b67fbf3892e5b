// Package config implements the engine's declarative configuration layer:
// Config/Setting/Testcase, loaded from YAML, TOML, or JSON by file
// extension, plus the coalesce-once-per-case merge and the CLI
// destination/knob overlay.
//
// Environment references are NOT expanded at load time; the engine's own
// ${env:NAME} template grammar renders them per request, so a value that
// never reaches the wire never needs its variables bound.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/relentless-eng/relentless/internal/coalesce"
	"github.com/relentless-eng/relentless/internal/destinations"
	"github.com/relentless-eng/relentless/internal/errs"
	"github.com/relentless-eng/relentless/internal/template"
)

// Repeat is an optional repeat count, used through a *Repeat: nil means
// "not set" and Times() applies the default of 1.
type Repeat int

// Times returns the configured repeat count, defaulting to 1 when unset
// or explicitly zero.
func (r *Repeat) Times() int {
	if r == nil || *r == 0 {
		return 1
	}
	return int(*r)
}

// Attr carries the testcase-level exemption flag: an allowed case may
// fail without failing the run in non-strict mode.
type Attr struct {
	Allow bool `yaml:"allow" toml:"allow" json:"allow"`
}

// Setting is Setting<Q,P>: the protocol-specific request/response
// configuration (Q, P — supplied by internal/protocol/httpproto or
// internal/protocol/grpcproto) plus the cross-protocol knobs every case
// shares: per-destination template bindings, repeat count, and timeout.
type Setting[Q, P any] struct {
	Request  Q                        `yaml:"request" toml:"request" json:"request"`
	Template map[string]template.Vars `yaml:"template" toml:"template" json:"template"`
	Repeat   *Repeat                  `yaml:"repeat" toml:"repeat" json:"repeat"`
	Timeout  *time.Duration           `yaml:"timeout" toml:"timeout" json:"timeout"`
	Response P                        `yaml:"response" toml:"response" json:"response"`
}

// OrderedTemplate builds the destination-ordered view of Template used at
// request-build time; destination names are sorted so the ordering is
// deterministic regardless of the decoder's internal map iteration.
func (s Setting[Q, P]) OrderedTemplate() *destinations.Map[template.Vars] {
	return orderedVarsMap(s.Template)
}

// CoalesceSetting merges override (the case-level Setting) over base (the
// worker-level Setting), field by field, exactly once per case before
// execution. mergeReq/mergeResp merge the protocol-specific
// Request/Response payloads; the engine has no generic way to merge an
// arbitrary Q or P, so the protocol package supplies those mergers.
func CoalesceSetting[Q, P any](
	base, override Setting[Q, P],
	mergeReq func(base, override Q) Q,
	mergeResp func(base, override P) P,
) Setting[Q, P] {
	return Setting[Q, P]{
		Request:  mergeReq(base.Request, override.Request),
		Template: coalesce.Map(base.Template, override.Template),
		Repeat:   coalesce.Value(base.Repeat, override.Repeat),
		Timeout:  coalesce.Value(base.Timeout, override.Timeout),
		Response: mergeResp(base.Response, override.Response),
	}
}

// Testcase is Testcase<Q,P>: one declarative comparison or assault case.
type Testcase[Q, P any] struct {
	Description string        `yaml:"description" toml:"description" json:"description"`
	Target      string        `yaml:"target" toml:"target" json:"target"`
	Setting     Setting[Q, P] `yaml:"setting" toml:"setting" json:"setting"`
	Attr        Attr          `yaml:"attr" toml:"attr" json:"attr"`
}

// WorkerConfig is the worker-level view of a decoded Config: an optional
// name, the fan-out destinations, and the worker-level Setting every
// Testcase's Setting coalesces against.
type WorkerConfig[Q, P any] struct {
	Name         string
	Destinations *destinations.Map[string]
	Setting      Setting[Q, P]
}

// Config is the top-level decoded document: name, destinations, a
// worker-level setting, and the testcase list.
type Config[Q, P any] struct {
	Name         string            `yaml:"name,omitempty" toml:"name,omitempty" json:"name,omitempty"`
	Protocol     string            `yaml:"protocol,omitempty" toml:"protocol,omitempty" json:"protocol,omitempty"`
	Destinations map[string]string `yaml:"destinations" toml:"destinations" json:"destinations"`
	Setting      Setting[Q, P]     `yaml:"setting" toml:"setting" json:"setting"`
	Testcases    []Testcase[Q, P]  `yaml:"testcases" toml:"testcases" json:"testcases"`
}

// WorkerConfig extracts the worker-level view of c, with Destinations
// converted to a deterministically-ordered Map. Names are sorted: a stable
// sort over the decoded map keeps report order reproducible without
// needing an order-preserving decoder for every format.
func (c *Config[Q, P]) WorkerConfig() WorkerConfig[Q, P] {
	return WorkerConfig[Q, P]{
		Name:         c.Name,
		Destinations: orderedStringMap(c.Destinations),
		Setting:      c.Setting,
	}
}

// Protocol reads just the top-level "protocol" field of a config file
// without decoding the rest, so the CLI can pick httpproto.Request or
// grpcproto.Request before doing the fully-typed Load. Absent field means
// "http".
func Protocol(path string) (string, error) {
	var probe struct {
		Protocol string `yaml:"protocol" toml:"protocol" json:"protocol"`
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &errs.InterfaceError{Msg: fmt.Sprintf("cannot read config %q", path), Cause: err}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		_ = yaml.Unmarshal(data, &probe)
	case ".json":
		_ = json.Unmarshal(data, &probe)
	case ".toml":
		_ = toml.Unmarshal(data, &probe)
	default:
		return "", &errs.InterfaceError{Msg: fmt.Sprintf("unknown config extension %q", ext)}
	}

	if probe.Protocol == "" {
		return "http", nil
	}
	return probe.Protocol, nil
}

func orderedStringMap(m map[string]string) *destinations.Map[string] {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	out := destinations.New[string]()
	for _, n := range names {
		out.Set(n, m[n])
	}
	return out
}

func orderedVarsMap(m map[string]template.Vars) *destinations.Map[template.Vars] {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	out := destinations.New[template.Vars]()
	for _, n := range names {
		out.Set(n, m[n])
	}
	return out
}

// Load reads path and decodes it into a Config[Q,P], dispatching on file
// extension (.yaml/.yml, .json, .toml) and rejecting unknown fields in
// every format.
func Load[Q, P any](path string) (*Config[Q, P], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.InterfaceError{Msg: fmt.Sprintf("cannot read config %q", path), Cause: err}
	}

	var cfg Config[Q, P]
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, &errs.InterfaceError{Msg: fmt.Sprintf("invalid yaml config %q", path), Cause: err}
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, &errs.InterfaceError{Msg: fmt.Sprintf("invalid json config %q", path), Cause: err}
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, &errs.InterfaceError{Msg: fmt.Sprintf("invalid toml config %q", path), Cause: err}
		}
	default:
		return nil, &errs.InterfaceError{Msg: fmt.Sprintf("unknown config extension %q", ext)}
	}

	return &cfg, nil
}

// LoadEnv reads a .env file from the current working directory and sets
// each KEY=VALUE pair as an environment variable. Deliberately permissive;
// the file is an optional development convenience.
func LoadEnv() {
	data, _ := os.ReadFile(".env")
	for _, line := range strings.Split(string(data), "\n") {
		if parts := strings.SplitN(line, "=", 2); len(parts) == 2 {
			os.Setenv(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
		}
	}
}
