package measure

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCallResponse(t *testing.T) {
	res := Call(context.Background(), nil, nil, func(ctx context.Context, req string) (string, error) {
		return "ok:" + req, nil
	}, "hi")

	require.Equal(t, KindResponse, res.Kind())
	mr, ok := res.Response()
	require.True(t, ok)
	require.Equal(t, "ok:hi", mr.Response)
	require.GreaterOrEqual(t, mr.Latency, time.Duration(0))
}

func TestCallTimeout(t *testing.T) {
	timeout := 20 * time.Millisecond
	res := Call(context.Background(), &timeout, nil, func(ctx context.Context, req string) (string, error) {
		select {
		case <-time.After(500 * time.Millisecond):
			return "late", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}, "hi")

	require.Equal(t, KindTimeout, res.Kind())
	lat, ok := res.Latency()
	require.True(t, ok)
	require.Equal(t, timeout, lat)
}

func TestCallNoReady(t *testing.T) {
	res := Call[string, string](context.Background(), nil, func(ctx context.Context) error {
		return errors.New("upstream booting")
	}, func(ctx context.Context, req string) (string, error) {
		t.Fatal("do should not be called when not ready")
		return "", nil
	}, "hi")

	require.Equal(t, KindNoReady, res.Kind())
	require.Error(t, res.Err())
}

func TestCallInnerServiceError(t *testing.T) {
	want := errors.New("boom")
	res := Call(context.Background(), nil, nil, func(ctx context.Context, req string) (string, error) {
		return "", want
	}, "hi")

	require.Equal(t, KindInnerServiceError, res.Kind())
	require.ErrorIs(t, res.Err(), want)
}
