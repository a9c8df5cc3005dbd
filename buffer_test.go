package iio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferCreateAndEnqueueDequeue(t *testing.T) {
	ctx := newTestContext(t, "buffer-basic")
	dev, err := ctx.FindDevice("iio:device0")
	require.NoError(t, err)

	ch0, err := dev.FindChannel("voltage0", false)
	require.NoError(t, err)
	ch1, err := dev.FindChannel("voltage1", false)
	require.NoError(t, err)

	m := dev.NewChannelsMask()
	m.Enable(ch0)
	m.Enable(ch1)
	require.Equal(t, 2, m.Count())

	buf, err := dev.CreateBuffer(context.Background(), m, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = buf.Close() })

	require.Greater(t, buf.FrameSize(), 0)

	blk := buf.NewBlock(buf.FrameSize() * 4)
	require.NoError(t, blk.Enqueue(context.Background(), 0, false))
	require.NoError(t, blk.Dequeue(context.Background(), false))
	require.Len(t, blk.Data(), buf.FrameSize()*4)
}

func TestBufferCancelUnblocksBlock(t *testing.T) {
	ctx := newTestContext(t, "buffer-cancel")
	dev, err := ctx.FindDevice("iio:device0")
	require.NoError(t, err)
	m := dev.NewChannelsMask()

	buf, err := dev.CreateBuffer(context.Background(), m, false)
	require.NoError(t, err)

	buf.Cancel()
	require.True(t, buf.Cancelled())

	blk := buf.NewBlock(64)
	err = blk.Enqueue(context.Background(), 0, false)
	require.Error(t, err)
	require.True(t, IsKind(err, KindCancelled))
}

func TestCyclicBufferRejectsSecondEnqueue(t *testing.T) {
	ctx := newTestContext(t, "buffer-cyclic")
	dev, err := ctx.FindDevice("iio:device0")
	require.NoError(t, err)
	m := dev.NewChannelsMask()

	buf, err := dev.CreateBuffer(context.Background(), m, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = buf.Close() })

	blk1 := buf.NewBlock(64)
	require.NoError(t, blk1.Enqueue(context.Background(), 0, true))

	blk2 := buf.NewBlock(64)
	err = blk2.Enqueue(context.Background(), 0, true)
	require.Error(t, err)
	require.True(t, IsKind(err, KindBadState))
}

func TestDequeueNeverEnqueuedIsBadState(t *testing.T) {
	ctx := newTestContext(t, "buffer-badstate")
	dev, err := ctx.FindDevice("iio:device0")
	require.NoError(t, err)
	m := dev.NewChannelsMask()

	buf, err := dev.CreateBuffer(context.Background(), m, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = buf.Close() })

	blk := buf.NewBlock(64)
	err = blk.Dequeue(context.Background(), false)
	require.Error(t, err)
	require.True(t, IsKind(err, KindBadState))
}

func TestStreamNextCyclesBlocks(t *testing.T) {
	ctx := newTestContext(t, "stream-basic")
	dev, err := ctx.FindDevice("iio:device0")
	require.NoError(t, err)
	ch0, err := dev.FindChannel("voltage0", false)
	require.NoError(t, err)

	m := dev.NewChannelsMask()
	m.Enable(ch0)

	buf, err := dev.CreateBuffer(context.Background(), m, false)
	require.NoError(t, err)

	stream, err := buf.CreateStream(3, 16)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stream.Close() })

	for i := 0; i < 5; i++ {
		blk, err := stream.Next(context.Background())
		require.NoError(t, err)
		require.NotEmpty(t, blk.Data())
	}
}
