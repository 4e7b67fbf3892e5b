package grpcproto

// MergeRequest implements config.CoalesceSetting's mergeReq for gRPC:
// case-level descriptor/message override worker-level wholesale once
// either is declared. gRPC's Request has no independently-coalescable
// sub-fields worth splitting further, unlike HTTP's headers/body.
func MergeRequest(base, override Request) Request {
	out := base
	if override.Descriptor.Kind != "" {
		out.Descriptor = override.Descriptor
	}
	if override.Message.Kind != "" {
		out.Message = override.Message
	}
	return out
}

// MergeResponse implements config.CoalesceSetting's mergeResp for gRPC.
// Response is structurally empty, so there is nothing to merge.
func MergeResponse(base, override Response) Response {
	return Response{}
}
