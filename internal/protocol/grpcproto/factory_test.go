package grpcproto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitTarget(t *testing.T) {
	svc, method, err := splitTarget("grpc.health.v1.Health/Check")
	require.NoError(t, err)
	require.Equal(t, "grpc.health.v1.Health", svc)
	require.Equal(t, "Check", method)

	_, _, err = splitTarget("no-slash-here")
	require.Error(t, err)
}

func TestMergeRequestRightBiased(t *testing.T) {
	base := Request{
		Descriptor: Descriptor{Kind: DescriptorReflection},
		Message:    Message{Kind: MessageEmpty},
	}
	override := Request{
		Message: Message{Kind: MessageJSON, JSON: map[string]any{"service": ""}},
	}

	merged := MergeRequest(base, override)
	require.Equal(t, DescriptorReflection, merged.Descriptor.Kind)
	require.Equal(t, MessageJSON, merged.Message.Kind)

	require.Equal(t, base, MergeRequest(base, Request{}))
}

func TestDynamicCodecRejectsForeignTypes(t *testing.T) {
	var c dynamicCodec
	require.Equal(t, "proto", c.Name())

	_, err := c.Marshal("not a dynamic message")
	require.Error(t, err)
	require.Error(t, c.Unmarshal(nil, "not a dynamic message"))
}
