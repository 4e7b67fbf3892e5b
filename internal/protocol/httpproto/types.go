// Package httpproto is the HTTP instantiation of the engine's
// protocol-polymorphic request factory and evaluator. A single rule
// schema covers both modes: with one destination each part is validated
// against its declared rule, with two or more the destinations are
// checked for pairwise agreement.
package httpproto

import (
	"encoding/json"
	"net/http"

	"github.com/relentless-eng/relentless/internal/diff"
)

// BodyKind discriminates Body's variant: Empty | Plaintext(s) | Json(v).
type BodyKind string

const (
	BodyEmpty     BodyKind = "empty"
	BodyPlaintext BodyKind = "plaintext"
	BodyJSON      BodyKind = "json"
)

// Body is the request body configuration.
type Body struct {
	Kind      BodyKind `yaml:"kind" toml:"kind" json:"kind"`
	Plaintext string   `yaml:"plaintext,omitempty" toml:"plaintext,omitempty" json:"plaintext,omitempty"`
	JSON      any      `yaml:"json,omitempty" toml:"json,omitempty" json:"json,omitempty"`
}

// HeaderEntry is one declared request header, kept as an ordered pair
// (rather than a map) so the factory can collapse duplicate keys
// last-wins over declaration order.
type HeaderEntry struct {
	Name  string `yaml:"name" toml:"name" json:"name"`
	Value string `yaml:"value" toml:"value" json:"value"`
}

// Request is the declarative HTTP request: method, declared headers,
// body, and the auto-header suppression flag.
type Request struct {
	Method              string        `yaml:"method,omitempty" toml:"method,omitempty" json:"method,omitempty"`
	Headers             []HeaderEntry `yaml:"headers,omitempty" toml:"headers,omitempty" json:"headers,omitempty"`
	Body                Body          `yaml:"body,omitempty" toml:"body,omitempty" json:"body,omitempty"`
	NoAdditionalHeaders bool          `yaml:"no-additional-headers,omitempty" toml:"no-additional-headers,omitempty" json:"no-additional-headers,omitempty"`
}

// StatusKind discriminates StatusRule's variant.
type StatusKind string

const (
	StatusOkOrEqual StatusKind = "ok-or-equal"
	StatusExpect    StatusKind = "expect"
	StatusIgnore    StatusKind = "ignore"
)

// StatusRule is the status acceptor: OkOrEqual | Expect(code|per-dest) |
// Ignore. Value holds the "all destinations expect this code" form;
// PerDestination holds the per-destination form. Exactly one is set when
// Kind == StatusExpect.
type StatusRule struct {
	Kind           StatusKind     `yaml:"kind" toml:"kind" json:"kind"`
	Value          *int           `yaml:"value,omitempty" toml:"value,omitempty" json:"value,omitempty"`
	PerDestination map[string]int `yaml:"per-destination,omitempty" toml:"per-destination,omitempty" json:"per-destination,omitempty"`
}

// HeaderKind discriminates HeaderRule's variant.
type HeaderKind string

const (
	HeaderAnyOrEqual HeaderKind = "any-or-equal"
	HeaderExpect     HeaderKind = "expect"
	HeaderIgnore     HeaderKind = "ignore"
)

// HeaderRule is the header acceptor.
type HeaderRule struct {
	Kind           HeaderKind                   `yaml:"kind" toml:"kind" json:"kind"`
	Value          map[string]string            `yaml:"value,omitempty" toml:"value,omitempty" json:"value,omitempty"`
	PerDestination map[string]map[string]string `yaml:"per-destination,omitempty" toml:"per-destination,omitempty" json:"per-destination,omitempty"`
}

// BodyRuleKind discriminates BodyRule's variant.
type BodyRuleKind string

const (
	BodyRuleAnyOrEqual BodyRuleKind = "any-or-equal"
	BodyRulePlaintext  BodyRuleKind = "plaintext"
	BodyRuleJSON       BodyRuleKind = "json"
)

// BodyRule is the body acceptor: AnyOrEqual | Plaintext{regex?} |
// Json{ignore[], patch?, patch_fail?}. Patch/PatchFail are config-facing
// `any`-shaped fields (every decode format handles `any` uniformly);
// toDiffConfig below converts them to internal/diff's byte-oriented
// PatchSpec at evaluation time.
type BodyRule struct {
	Kind         BodyRuleKind   `yaml:"kind" toml:"kind" json:"kind"`
	Regex        string         `yaml:"regex,omitempty" toml:"regex,omitempty" json:"regex,omitempty"`
	Ignore       []string       `yaml:"ignore,omitempty" toml:"ignore,omitempty" json:"ignore,omitempty"`
	Patch        any            `yaml:"patch,omitempty" toml:"patch,omitempty" json:"patch,omitempty"`
	PatchPerDest map[string]any `yaml:"patch-per-destination,omitempty" toml:"patch-per-destination,omitempty" json:"patch-per-destination,omitempty"`
	PatchFail    string         `yaml:"patch-fail,omitempty" toml:"patch-fail,omitempty" json:"patch-fail,omitempty"` // "allow" | "warn" | "error"
}

func (b BodyRule) toDiffConfig() diff.Config {
	cfg := diff.Config{Ignore: b.Ignore}
	if b.Patch != nil || len(b.PatchPerDest) > 0 {
		spec := &diff.PatchSpec{}
		if b.Patch != nil {
			spec.All, _ = marshalJSON(b.Patch)
		}
		if len(b.PatchPerDest) > 0 {
			spec.PerDestination = make(map[string]json.RawMessage, len(b.PatchPerDest))
			for name, doc := range b.PatchPerDest {
				spec.PerDestination[name], _ = marshalJSON(doc)
			}
		}
		cfg.Patch = spec
	}
	switch b.PatchFail {
	case "allow":
		pf := diff.PatchFailAllow
		cfg.PatchFail = &pf
	case "warn":
		pf := diff.PatchFailWarn
		cfg.PatchFail = &pf
	case "error":
		pf := diff.PatchFailError
		cfg.PatchFail = &pf
	}
	return cfg
}

// Response holds the HTTP status, header, and body comparison rules.
type Response struct {
	Status StatusRule `yaml:"status" toml:"status" json:"status"`
	Header HeaderRule `yaml:"header" toml:"header" json:"header"`
	Body   BodyRule   `yaml:"body" toml:"body" json:"body"`
}

// Reply is the measured HTTP result: status, headers, and the fully-read
// body, buffered once so the evaluator and recorder see the same bytes.
type Reply struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}
