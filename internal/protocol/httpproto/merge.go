package httpproto

import "github.com/relentless-eng/relentless/internal/coalesce"

// MergeRequest implements config.CoalesceSetting's mergeReq for HTTP: case
// settings override worker settings field by field, built from
// internal/coalesce's generic primitives.
func MergeRequest(base, override Request) Request {
	return Request{
		Method:              coalesce.String(base.Method, override.Method),
		Headers:             coalesce.Slice(base.Headers, override.Headers),
		Body:                mergeBody(base.Body, override.Body),
		NoAdditionalHeaders: override.NoAdditionalHeaders || base.NoAdditionalHeaders,
	}
}

func mergeBody(base, override Body) Body {
	if override.Kind == "" {
		return base
	}
	return override
}

// MergeResponse implements config.CoalesceSetting's mergeResp for HTTP.
func MergeResponse(base, override Response) Response {
	return Response{
		Status: mergeStatus(base.Status, override.Status),
		Header: mergeHeader(base.Header, override.Header),
		Body:   mergeBodyRule(base.Body, override.Body),
	}
}

func mergeStatus(base, override StatusRule) StatusRule {
	if override.Kind == "" {
		return base
	}
	return override
}

func mergeHeader(base, override HeaderRule) HeaderRule {
	if override.Kind == "" {
		return base
	}
	return override
}

func mergeBodyRule(base, override BodyRule) BodyRule {
	if override.Kind == "" {
		return base
	}
	return override
}
