// Package measure wraps a request-dispatching callable with latency
// measurement and timeout/readiness classification, as a decorator generic
// over the underlying call so every protocol (HTTP, gRPC) gets identical
// measurement semantics.
//
// Measurement sits inside the per-request timeout: Call applies both in
// one step so the elapsed time captured always spans the full underlying
// call, even the part that raced against the timeout.
package measure

import (
	"context"
	"errors"
	"time"
)

// Kind discriminates a Result's variant.
type Kind int

const (
	KindResponse Kind = iota
	KindTimeout
	KindFailToMakeRequest
	KindNoReady
	KindInnerServiceError
)

// MeasuredResponse pairs a successful response with when it started and how
// long it took.
type MeasuredResponse[Res any] struct {
	Response       Res
	StartTimestamp time.Time
	Latency        time.Duration
}

// Result is exactly one of a measured response, a classified timeout, or
// a classified failure.
type Result[Res any] struct {
	kind     Kind
	response MeasuredResponse[Res]
	timeout  time.Duration
	err      error
}

func OfResponse[Res any](r MeasuredResponse[Res]) Result[Res] {
	return Result[Res]{kind: KindResponse, response: r}
}

func OfTimeout[Res any](d time.Duration) Result[Res] {
	return Result[Res]{kind: KindTimeout, timeout: d}
}

func OfFailToMakeRequest[Res any](err error) Result[Res] {
	return Result[Res]{kind: KindFailToMakeRequest, err: err}
}

func OfNoReady[Res any](err error) Result[Res] {
	return Result[Res]{kind: KindNoReady, err: err}
}

func OfInnerServiceError[Res any](err error) Result[Res] {
	return Result[Res]{kind: KindInnerServiceError, err: err}
}

func (r Result[Res]) Kind() Kind { return r.kind }

// Response returns the measured response and true iff Kind() == KindResponse.
func (r Result[Res]) Response() (MeasuredResponse[Res], bool) {
	return r.response, r.kind == KindResponse
}

// Err returns the classified failure's cause, nil for KindResponse and
// KindTimeout (which carries a duration, not a cause).
func (r Result[Res]) Err() error { return r.err }

// Latency returns an observation suitable for the aggregator: the measured
// latency for a response, or the configured timeout bound for a timeout (a
// timed-out request still contributes a latency observation). Returns
// false for hard failures, which contribute no latency observation.
func (r Result[Res]) Latency() (time.Duration, bool) {
	switch r.kind {
	case KindResponse:
		return r.response.Latency, true
	case KindTimeout:
		return r.timeout, true
	default:
		return 0, false
	}
}

// notReadyError lets a readiness probe signal "skip the call, classify as
// NoReady" without the caller needing to inspect a magic error value type
// outside this package.
type notReadyError struct{ cause error }

func (e *notReadyError) Error() string { return "not ready: " + e.cause.Error() }
func (e *notReadyError) Unwrap() error { return e.cause }

// NotReady wraps cause so Call classifies the failure as KindNoReady.
func NotReady(cause error) error { return &notReadyError{cause: cause} }

// Call dispatches req through do, applying timeout (if non-nil) and
// classifying the outcome. ready, if non-nil, is invoked before the call;
// a non-nil error classifies the result as KindNoReady without dispatching.
func Call[Req, Res any](
	ctx context.Context,
	timeout *time.Duration,
	ready func(ctx context.Context) error,
	do func(ctx context.Context, req Req) (Res, error),
	req Req,
) Result[Res] {
	if ready != nil {
		if err := ready(ctx); err != nil {
			return OfNoReady[Res](err)
		}
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if timeout != nil {
		callCtx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := do(callCtx, req)
	latency := time.Since(start)

	if err != nil {
		var nr *notReadyError
		if errors.As(err, &nr) {
			return OfNoReady[Res](nr.cause)
		}
		if timeout != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return OfTimeout[Res](*timeout)
		}
		if errors.Is(err, context.Canceled) {
			return OfFailToMakeRequest[Res](err)
		}
		return OfInnerServiceError[Res](err)
	}

	return OfResponse(MeasuredResponse[Res]{
		Response:       res,
		StartTimestamp: start,
		Latency:        latency,
	})
}
