package streaming

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRedisDurability(t *testing.T) (*RedisDurability, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisDurability(client, time.Minute, zap.NewNop()), mr
}

func TestRedisDurabilityAppendAndReplay(t *testing.T) {
	d, _ := newTestRedisDurability(t)
	ctx := context.Background()

	require.NoError(t, d.Append(ctx, Event{RequestID: "req-1", Type: EventProgressInit, Seq: 0}))
	require.NoError(t, d.Append(ctx, Event{RequestID: "req-1", Type: EventDepthDelta, Seq: 1}))
	require.NoError(t, d.Append(ctx, Event{RequestID: "req-1", Type: EventFinish, Seq: 2}))

	events, err := d.ReplaySince(ctx, "req-1", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, EventDepthDelta, events[0].Type)
	require.Equal(t, EventFinish, events[1].Type)
}

func TestRedisDurabilityDiscard(t *testing.T) {
	d, _ := newTestRedisDurability(t)
	ctx := context.Background()

	require.NoError(t, d.Append(ctx, Event{RequestID: "req-2", Type: EventFinish}))
	require.NoError(t, d.Discard(ctx, "req-2"))

	events, err := d.ReplaySince(ctx, "req-2", 0)
	require.NoError(t, err)
	require.Empty(t, events)
}
