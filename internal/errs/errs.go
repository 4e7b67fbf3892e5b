// Package errs implements the engine's error taxonomy: typed, wrappable
// errors for each layer (interface, factory, request, evaluate, assault).
// Each type satisfies error and wraps an inner cause, giving callers
// something to errors.As against when they need to tell a config mistake
// from a transport failure from a soft evaluation mismatch.
package errs

import (
	"fmt"
	"time"
)

// InterfaceError covers CLI/config-file mistakes: unreadable files, unknown
// extensions, malformed --destination flags, NaN percentiles.
type InterfaceError struct {
	Msg   string
	Cause error
}

func (e *InterfaceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("interface error: %s: %v", e.Msg, e.Cause)
	}
	return fmt.Sprintf("interface error: %s", e.Msg)
}
func (e *InterfaceError) Unwrap() error { return e.Cause }

// FactoryError covers request-construction failures: bad URIs/methods,
// header render failures, JSON serialize failures, gRPC descriptor/
// reflection/service/method resolution failures.
type FactoryError struct {
	Msg   string
	Cause error
}

func (e *FactoryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("factory error: %s: %v", e.Msg, e.Cause)
	}
	return fmt.Sprintf("factory error: %s", e.Msg)
}
func (e *FactoryError) Unwrap() error { return e.Cause }

// RequestError covers dispatch-time failures classified by the measure
// layer: timeouts, not-ready upstreams, transport failures, latency-clock
// failures, and the catch-all Unknown.
type RequestError struct {
	Kind    string // "timeout" | "not-ready" | "fail-to-make-request" | "inner-service-error" | "fail-to-measure-latency" | "unknown"
	Timeout time.Duration
	Cause   error
}

func (e *RequestError) Error() string {
	switch e.Kind {
	case "timeout":
		return fmt.Sprintf("request timed out after %s", e.Timeout)
	default:
		if e.Cause != nil {
			return fmt.Sprintf("request error (%s): %v", e.Kind, e.Cause)
		}
		return fmt.Sprintf("request error (%s)", e.Kind)
	}
}
func (e *RequestError) Unwrap() error { return e.Cause }

// EvaluateError covers soft evaluation mismatches turned into report
// messages: unacceptable status/headers, body-collection/parse/patch
// failures, a diff at a JSON Pointer path, regex compile/mismatch, and a
// per-destination request timeout surfaced at evaluation time.
type EvaluateError struct {
	Kind    string // "unacceptable-status" | "unacceptable-headers" | "fail-to-collect-body" | "fail-to-parse-json" | "fail-to-patch-json" | "diff" | "regex-compile" | "regex-mismatch" | "request-timeout"
	Path    string // JSON Pointer, for Kind == "diff"
	Detail  string
	Timeout time.Duration
}

func (e *EvaluateError) Error() string {
	switch e.Kind {
	case "diff":
		return fmt.Sprintf("diff at %s", e.Path)
	case "request-timeout":
		return fmt.Sprintf("request timed out after %s", e.Timeout)
	default:
		if e.Detail != "" {
			return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
		}
		return e.Kind
	}
}

// AssaultError covers a router key with no matching destination.
type AssaultError struct {
	Service string
}

func (e *AssaultError) Error() string {
	return fmt.Sprintf("cannot specify service: no destination matches %q", e.Service)
}
