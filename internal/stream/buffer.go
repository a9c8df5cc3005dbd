package stream

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/openiio/goiio/internal/backend"
	"github.com/openiio/goiio/internal/logging"
	"github.com/openiio/goiio/internal/mask"
)

// Buffer owns a set of Blocks opened against one device under a
// resolved channel mask. Cancel is one-shot and sticky: once
// cancelled, every blocked Enqueue/Dequeue on any Block returns
// ErrCancelled within a bounded delay, and the Buffer must be closed
// and a new one opened to resume I/O.
type Buffer struct {
	ctx       *backend.Context
	inner     *backend.Buffer
	deviceIdx int
	mask      *mask.Mask
	cyclic    bool

	cancelled    atomic.Bool
	cyclicPushed atomic.Bool
	blocks       []*Block
}

// Open opens a buffer on ctx for deviceIdx under mask m, requesting a
// hardware ring of samplesCount samples, the single entry point used
// by both direct Block allocation and Stream.
func Open(ctx context.Context, bctx *backend.Context, deviceIdx int, m *mask.Mask, samplesCount int, cyclic bool) (*Buffer, error) {
	inner, err := bctx.Backend.OpenBuffer(ctx, bctx, deviceIdx, m, samplesCount)
	if err != nil {
		return nil, fmt.Errorf("stream: open buffer: %w", err)
	}
	return &Buffer{ctx: bctx, inner: inner, deviceIdx: deviceIdx, mask: m, cyclic: cyclic}, nil
}

// FrameSize is the per-sample byte stride under this buffer's mask.
func (b *Buffer) FrameSize() int { return b.inner.FrameSize }

// NewBlock allocates one Block of size bytes (a multiple of
// FrameSize() in ordinary use, though this is not itself enforced).
func (b *Buffer) NewBlock(size int) *Block {
	inner := &backend.Block{Buffer: b.inner, Data: make([]byte, size)}
	blk := &Block{buf: b, inner: inner, data: inner.Data}
	b.blocks = append(b.blocks, blk)
	return blk
}

// Cancel atomically transitions the buffer to cancelled and propagates
// the cancellation into the backend, waking any Enqueue/Dequeue
// currently blocked in a syscall on another goroutine. Safe to call
// from any goroutine, any number of times; only the first call has an
// effect.
func (b *Buffer) Cancel() {
	if !b.cancelled.CompareAndSwap(false, true) {
		return
	}
	if err := b.ctx.Backend.CancelBuffer(b.inner); err != nil {
		logging.Default().Debug("stream: cancel buffer", "error", err)
	}
}

// Cancelled reports whether Cancel has been called.
func (b *Buffer) Cancelled() bool { return b.cancelled.Load() }

// Close destroys every block and the underlying backend buffer.
// Per the state diagram, this is the only way to resume I/O after a
// cancellation: open a fresh Buffer.
func (b *Buffer) Close() error {
	for _, blk := range b.blocks {
		blk.free()
	}
	return b.ctx.Backend.CloseBuffer(b.inner)
}
