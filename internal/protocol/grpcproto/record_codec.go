package grpcproto

import (
	"fmt"

	"github.com/relentless-eng/relentless/internal/record"
)

// RequestCodec and ResponseCodec implement record.Codec for gRPC: the
// "raw" dump is the method name plus the JSON payload, since gRPC has no
// wire-text analogue to an HTTP status line.
type RequestCodec struct{}
type ResponseCodec struct{}

var (
	_ record.Codec[BuiltRequest] = RequestCodec{}
	_ record.Codec[Reply]        = ResponseCodec{}
)

func (RequestCodec) Raw(r BuiltRequest) string {
	body, _ := r.Req.MarshalJSON()
	return fmt.Sprintf("CALL %s\n\n%s", r.FullMethod, body)
}

func (RequestCodec) Body(r BuiltRequest) ([]byte, string) {
	body, _ := r.Req.MarshalJSON()
	return body, "json"
}

func (ResponseCodec) Raw(r Reply) string {
	return fmt.Sprintf("OK\n\n%s", r.JSON)
}

func (ResponseCodec) Body(r Reply) ([]byte, string) {
	return r.JSON, "json"
}
