package grpcproto

import (
	"fmt"

	"github.com/jhump/protoreflect/dynamic"
)

// dynamicCodec is an encoding.Codec that marshals/unmarshals
// *dynamic.Message directly, bypassing the google.golang.org/protobuf
// proto.Message reflection path dynamic.Message doesn't implement. This is
// the same trick reflection-driven gRPC tools like grpcurl use to drive an
// arbitrary method known only at runtime.
type dynamicCodec struct{}

func (dynamicCodec) Name() string { return "proto" }

func (dynamicCodec) Marshal(v any) ([]byte, error) {
	msg, ok := v.(*dynamic.Message)
	if !ok {
		return nil, fmt.Errorf("dynamicCodec: unsupported type %T", v)
	}
	return msg.Marshal()
}

func (dynamicCodec) Unmarshal(data []byte, v any) error {
	msg, ok := v.(*dynamic.Message)
	if !ok {
		return fmt.Errorf("dynamicCodec: unsupported type %T", v)
	}
	return msg.Unmarshal(data)
}
