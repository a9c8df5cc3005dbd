package iio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventStreamReadAndResolveChannel(t *testing.T) {
	ctx := newTestContext(t, "event-basic")
	dev, err := ctx.FindDevice("iio:device0")
	require.NoError(t, err)

	es, err := dev.CreateEventStream()
	require.NoError(t, err)
	t.Cleanup(func() { _ = es.Destroy() })

	_, err = es.ReadEvent(context.Background(), true)
	require.Error(t, err)
	require.True(t, IsKind(err, KindWouldBlock))

	PushMemoryEvent(ctx, 0, Event{Type: 1, Direction: 0, TimestampNs: 42, ChannelScanIndex: 0})

	ev, err := es.ReadEvent(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, int64(42), ev.TimestampNs)

	ch, err := es.Channel(ev)
	require.NoError(t, err)
	require.Equal(t, "voltage0", ch.ID())
}

func TestEventStreamDestroyIsSticky(t *testing.T) {
	ctx := newTestContext(t, "event-destroy")
	dev, err := ctx.FindDevice("iio:device0")
	require.NoError(t, err)

	es, err := dev.CreateEventStream()
	require.NoError(t, err)

	require.NoError(t, es.Destroy())
	require.NoError(t, es.Destroy())

	_, err = es.ReadEvent(context.Background(), true)
	require.Error(t, err)
	require.True(t, IsKind(err, KindCancelled))
}
