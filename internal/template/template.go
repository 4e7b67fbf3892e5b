// Package template implements the engine's string interpolation grammar:
// "${name}" looks up a case/worker-scoped variable, "${env:NAME}" (or
// "${ENV:NAME}") reads the process environment, and anything else is
// literal. Both forms are hard errors when unbound, never silently empty.
// Templates run over URL target paths, query values, header values, and
// JSON body leaves.
package template

import (
	"fmt"
	"os"
	"strings"
)

// Vars is a case/worker-scoped variable binding map.
type Vars map[string]string

// Error reports a template rendering failure: an unbound variable, an
// unbound environment reference, or an unterminated "${".
type Error struct {
	Kind string // "unbound-var" | "unbound-env" | "unterminated"
	Name string
}

func (e *Error) Error() string {
	switch e.Kind {
	case "unbound-var":
		return fmt.Sprintf("template: unbound variable %q", e.Name)
	case "unbound-env":
		return fmt.Sprintf("template: unbound environment variable %q", e.Name)
	default:
		return "template: unterminated ${ placeholder"
	}
}

// Render expands every "${...}" placeholder in s using vars for plain names
// and the process environment for "env:"/"ENV:"-prefixed names. With an
// empty vars map, Render(s) == s for any s containing no "${".
func Render(s string, vars Vars) (string, error) {
	var b strings.Builder
	b.Grow(len(s))

	i := 0
	for i < len(s) {
		start := strings.IndexByte(s[i:], '$')
		if start < 0 {
			b.WriteString(s[i:])
			break
		}
		start += i
		b.WriteString(s[i:start])

		if start+1 >= len(s) || s[start+1] != '{' {
			b.WriteByte('$')
			i = start + 1
			continue
		}

		end := strings.IndexByte(s[start+2:], '}')
		if end < 0 {
			return "", &Error{Kind: "unterminated"}
		}
		end += start + 2

		name := s[start+2 : end]
		value, err := resolve(name, vars)
		if err != nil {
			return "", err
		}
		b.WriteString(value)
		i = end + 1
	}

	return b.String(), nil
}

func resolve(name string, vars Vars) (string, error) {
	if rest, ok := stripEnvPrefix(name); ok {
		v, ok := os.LookupEnv(rest)
		if !ok {
			return "", &Error{Kind: "unbound-env", Name: rest}
		}
		return v, nil
	}

	v, ok := vars[name]
	if !ok {
		return "", &Error{Kind: "unbound-var", Name: name}
	}
	return v, nil
}

func stripEnvPrefix(name string) (string, bool) {
	if rest, ok := strings.CutPrefix(name, "env:"); ok {
		return rest, true
	}
	if rest, ok := strings.CutPrefix(name, "ENV:"); ok {
		return rest, true
	}
	return "", false
}

// RenderJSONLeaves recurses into every string leaf of a decoded JSON value
// (map[string]any / []any / string / other) and renders it, leaving
// non-string leaves untouched. Used for JSON request bodies.
func RenderJSONLeaves(v any, vars Vars) (any, error) {
	switch val := v.(type) {
	case string:
		return Render(val, vars)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			rendered, err := RenderJSONLeaves(elem, vars)
			if err != nil {
				return nil, err
			}
			out[k] = rendered
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			rendered, err := RenderJSONLeaves(elem, vars)
			if err != nil {
				return nil, err
			}
			out[i] = rendered
		}
		return out, nil
	default:
		return v, nil
	}
}
