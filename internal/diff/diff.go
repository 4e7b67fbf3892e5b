// Package diff implements the JSON-patch-aware response differ: an
// optional RFC 6902 patch is applied per destination, then every adjacent
// pair of (patched) destination bodies is compared structurally and any
// differing path not on the ignore-list becomes a Diff message.
//
// The structural walk enumerates differing paths as RFC 6901 JSON
// Pointers so the ignore-list can address them individually; a delta
// renderer that only produces human-readable output would not serve that.
package diff

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/relentless-eng/relentless/internal/destinations"
)

// PatchFail classifies how a patch-application failure should propagate.
type PatchFail int

const (
	PatchFailAllow PatchFail = iota
	PatchFailWarn
	PatchFailError
)

// PatchSpec is either one patch document shared by all destinations, or
// one per destination.
type PatchSpec struct {
	All            json.RawMessage
	PerDestination map[string]json.RawMessage
}

// For returns the patch document that applies to destination name, if any.
func (p *PatchSpec) For(name string) (json.RawMessage, bool) {
	if p == nil {
		return nil, false
	}
	if doc, ok := p.PerDestination[name]; ok {
		return doc, true
	}
	if len(p.All) > 0 {
		return p.All, true
	}
	return nil, false
}

// Config holds the differ's declarative knobs.
type Config struct {
	Ignore    []string
	Patch     *PatchSpec
	PatchFail *PatchFail // nil == unset
}

func (c Config) ignored(path string) bool {
	for _, p := range c.Ignore {
		if p == path {
			return true
		}
	}
	return false
}

// Message names one non-ignored diff, at the JSON Pointer path where the
// two compared bodies disagree.
type Message struct {
	Path string
}

// Run applies Config.Patch to every destination body, then compares every
// adjacent pair (insertion order) structurally. It returns pass (true iff
// no non-ignored diff remained across any pair), the emitted messages, and
// a hard error only for a fatal patch failure or a body that fails to
// parse as JSON. A patch failure is fatal when PatchFail is set above Warn,
// or when it is unset and there is a single destination (nothing else to
// compare against).
func Run(bodies *destinations.Map[[]byte], cfg Config) (bool, []Message, error) {
	n := bodies.Len()

	values := destinations.New[any]()
	for _, name := range bodies.Names() {
		raw, _ := bodies.Get(name)

		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return false, nil, fmt.Errorf("fail to parse json for %q: %w", name, err)
		}

		if patchDoc, ok := cfg.Patch.For(name); ok {
			patched, err := applyPatch(raw, patchDoc)
			if err != nil {
				if patchIsFatal(cfg.PatchFail, n) {
					return false, nil, fmt.Errorf("fail to patch json for %q: %w", name, err)
				}
				// Non-fatal: continue with the unpatched value.
			} else {
				var pv any
				if err := json.Unmarshal(patched, &pv); err == nil {
					v = pv
				}
			}
		}

		values.Set(name, v)
	}

	names := values.Names()
	pass := true
	var messages []Message

	for i := 0; i+1 < len(names); i++ {
		a, _ := values.Get(names[i])
		b, _ := values.Get(names[i+1])

		var paths []string
		diffPaths(a, b, "", &paths)
		sort.Strings(paths)

		for _, p := range paths {
			if cfg.ignored(p) {
				continue
			}
			messages = append(messages, Message{Path: p})
			pass = false
		}
	}

	return pass, messages, nil
}

func patchIsFatal(level *PatchFail, destCount int) bool {
	if level != nil {
		return *level > PatchFailWarn
	}
	return destCount == 1
}

func applyPatch(doc, patchDoc json.RawMessage) ([]byte, error) {
	patch, err := jsonpatch.DecodePatch(patchDoc)
	if err != nil {
		return nil, err
	}
	return patch.Apply(doc)
}

// diffPaths recursively compares a and b, appending every JSON Pointer path
// (RFC 6901) at which they structurally disagree.
func diffPaths(a, b any, ptr string, out *[]string) {
	am, aIsMap := a.(map[string]any)
	bm, bIsMap := b.(map[string]any)
	if aIsMap || bIsMap {
		if !aIsMap || !bIsMap {
			*out = append(*out, pathOrRoot(ptr))
			return
		}
		for _, k := range unionKeys(am, bm) {
			childPtr := ptr + "/" + escapeToken(k)
			av, aok := am[k]
			bv, bok := bm[k]
			if !aok || !bok {
				*out = append(*out, childPtr)
				continue
			}
			diffPaths(av, bv, childPtr, out)
		}
		return
	}

	as, aIsSlice := a.([]any)
	bs, bIsSlice := b.([]any)
	if aIsSlice || bIsSlice {
		if !aIsSlice || !bIsSlice {
			*out = append(*out, pathOrRoot(ptr))
			return
		}
		n := len(as)
		if len(bs) > n {
			n = len(bs)
		}
		for i := 0; i < n; i++ {
			childPtr := fmt.Sprintf("%s/%d", ptr, i)
			if i >= len(as) || i >= len(bs) {
				*out = append(*out, childPtr)
				continue
			}
			diffPaths(as[i], bs[i], childPtr, out)
		}
		return
	}

	if !scalarEqual(a, b) {
		*out = append(*out, pathOrRoot(ptr))
	}
}

func scalarEqual(a, b any) bool {
	aj, aerr := json.Marshal(a)
	bj, berr := json.Marshal(b)
	if aerr != nil || berr != nil {
		return false
	}
	return string(aj) == string(bj)
}

func pathOrRoot(ptr string) string {
	if ptr == "" {
		return "/"
	}
	return ptr
}

func unionKeys(a, b map[string]any) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for k := range a {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	for k := range b {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// escapeToken escapes a JSON Pointer reference token per RFC 6901 (~ -> ~0,
// / -> ~1).
func escapeToken(tok string) string {
	tok = strings.ReplaceAll(tok, "~", "~0")
	tok = strings.ReplaceAll(tok, "/", "~1")
	return tok
}
