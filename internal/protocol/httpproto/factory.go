package httpproto

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/relentless-eng/relentless/internal/errs"
	"github.com/relentless-eng/relentless/internal/template"
)

// BuiltRequest is the factory's pure output: everything needed to build a
// *http.Request, kept as plain data so internal/record can buffer and
// re-dump it without re-running template rendering.
type BuiltRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Produce builds the concrete request data for one destination: rendered
// URL, method, collapsed headers, and body. It is pure aside from reading
// the environment via the template; no client is needed to build the
// request data, only to dispatch it (Do below).
func Produce(destinationURI, target string, req Request, vars template.Vars) (BuiltRequest, error) {
	renderedTarget, err := template.Render(target, vars)
	if err != nil {
		return BuiltRequest{}, &errs.FactoryError{Msg: "render target", Cause: err}
	}

	url := joinURL(destinationURI, renderedTarget)

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	method = strings.ToUpper(method)

	header := http.Header{}
	for _, h := range req.Headers {
		value, err := template.Render(h.Value, vars)
		if err != nil {
			return BuiltRequest{}, &errs.FactoryError{Msg: fmt.Sprintf("render header %q", h.Name), Cause: err}
		}
		// Last wins: a later entry for the same key (case-insensitively
		// normalized by CanonicalHeaderKey) overwrites, rather than
		// appends to, any earlier value.
		header.Set(h.Name, value)
	}

	body, autoHeaders, err := buildBody(req.Body, vars)
	if err != nil {
		return BuiltRequest{}, err
	}
	if !req.NoAdditionalHeaders {
		for k, v := range autoHeaders {
			if header.Get(k) == "" {
				header.Set(k, v)
			}
		}
	}

	return BuiltRequest{Method: method, URL: url, Header: header, Body: body}, nil
}

func joinURL(base, target string) string {
	base = strings.TrimRight(base, "/")
	if target == "" {
		return base
	}
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	return base + target
}

func buildBody(b Body, vars template.Vars) ([]byte, map[string]string, error) {
	switch b.Kind {
	case "", BodyEmpty:
		return nil, map[string]string{}, nil
	case BodyPlaintext:
		rendered, err := template.Render(b.Plaintext, vars)
		if err != nil {
			return nil, nil, &errs.FactoryError{Msg: "render plaintext body", Cause: err}
		}
		return []byte(rendered), map[string]string{
			"Content-Type":   "text/plain",
			"Content-Length": strconv.Itoa(len(rendered)),
		}, nil
	case BodyJSON:
		rendered, err := template.RenderJSONLeaves(b.JSON, vars)
		if err != nil {
			return nil, nil, &errs.FactoryError{Msg: "render json body", Cause: err}
		}
		data, err := json.Marshal(rendered)
		if err != nil {
			return nil, nil, &errs.FactoryError{Msg: "serialize json body", Cause: err}
		}
		return data, map[string]string{
			"Content-Type":   "application/json",
			"Content-Length": strconv.Itoa(len(data)),
		}, nil
	default:
		return nil, nil, &errs.FactoryError{Msg: fmt.Sprintf("unknown body kind %q", b.Kind)}
	}
}

// Do dispatches a BuiltRequest through client, fully reading the response
// body so the evaluator and recorder see the same bytes.
func Do(client *http.Client, ctx context.Context, built BuiltRequest) (Reply, error) {
	httpReq, err := http.NewRequestWithContext(ctx, built.Method, built.URL, bytes.NewReader(built.Body))
	if err != nil {
		return Reply{}, &errs.FactoryError{Msg: "build http.Request", Cause: err}
	}
	httpReq.Header = built.Header

	resp, err := client.Do(httpReq)
	if err != nil {
		return Reply{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{}, fmt.Errorf("read response body: %w", err)
	}

	return Reply{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}
