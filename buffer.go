package iio

import (
	"context"

	"github.com/openiio/goiio/internal/stream"
)

// Buffer is a handle to a hardware data path of a device, opened
// under a requested ChannelsMask (spec §3/§4.7). Buffer is safe to
// Cancel from any goroutine at any time; every other method must be
// called from a single goroutine at a time per device, per spec §5.
type Buffer struct {
	ctx       *Context
	deviceIdx int
	reqMask   *ChannelsMask
	inner     *stream.Buffer
}

func newBuffer(ctx context.Context, pctx *Context, deviceIdx int, m *ChannelsMask, samplesCount int, cyclic bool) (*Buffer, error) {
	inner, err := stream.Open(ctx, pctx.inner, deviceIdx, m.inner, samplesCount, cyclic)
	if err != nil {
		return nil, WrapError("CreateBuffer", err)
	}
	return &Buffer{ctx: pctx, deviceIdx: deviceIdx, reqMask: m, inner: inner}, nil
}

// FrameSize is the per-sample-set byte stride under this buffer's
// mask (spec §4.10).
func (b *Buffer) FrameSize() int { return b.inner.FrameSize() }

// RequestedMask is the ChannelsMask the application asked for at
// CreateBuffer time.
func (b *Buffer) RequestedMask() *ChannelsMask { return b.reqMask }

// NewBlock allocates one Block of size bytes, ordinarily a multiple
// of FrameSize().
func (b *Buffer) NewBlock(size int) *Block {
	return &Block{inner: b.inner.NewBlock(size)}
}

// CreateStream wraps this Buffer in a Stream prefetch helper that owns
// nbBlocks blocks of samplesPerBlock samples each (spec §4.7).
func (b *Buffer) CreateStream(nbBlocks, samplesPerBlock int) (*Stream, error) {
	inner, err := stream.NewStream(b.inner, nbBlocks, samplesPerBlock)
	if err != nil {
		return nil, WrapError("Buffer.CreateStream", err)
	}
	return &Stream{inner: inner}, nil
}

// Cancel atomically transitions the buffer to cancelled: every
// subsequent Enqueue/Dequeue on any Block fails immediately with
// ErrCancelled, and any currently-blocked call on any goroutine
// returns ErrCancelled within a bounded delay (spec §4.7/§5). One-shot
// and sticky: the only way to resume I/O is to Close this Buffer and
// CreateBuffer a new one.
func (b *Buffer) Cancel() { b.inner.Cancel() }

// Cancelled reports whether Cancel has been called.
func (b *Buffer) Cancelled() bool { return b.inner.Cancelled() }

// Close destroys every block this Buffer allocated and the underlying
// hardware data path.
func (b *Buffer) Close() error { return WrapError("Buffer.Close", b.inner.Close()) }

// Block is a fixed-size region of buffer sample data belonging to
// exactly one Buffer for its entire lifetime (spec §3).
type Block struct {
	inner *stream.Block
}

// Data returns the block's backing byte slice. Valid to read after a
// successful Dequeue; do not retain it past the next Enqueue; the
// backend may reuse the storage.
func (b *Block) Data() []byte { return b.inner.Data() }

// mapBlockErr translates the stream package's sentinel errors into
// the public *Error taxonomy. WouldBlock and Cancelled get their own
// Kinds; AlreadyQueued, BadState and CyclicAlreadyPushed all map to
// KindBadState and differ only in the error message.
func mapBlockErr(op string, err error) error {
	switch err {
	case nil:
		return nil
	case stream.ErrAlreadyQueued:
		return NewError(op, KindBadState, "block already queued")
	case stream.ErrBadState:
		return NewError(op, KindBadState, "block in wrong state for this operation")
	case stream.ErrWouldBlock:
		return NewError(op, KindWouldBlock, "would block")
	case stream.ErrCancelled:
		return NewError(op, KindCancelled, "buffer cancelled")
	case stream.ErrCyclicAlreadyPushed:
		return NewError(op, KindBadState, "cyclic buffer already has a pending block")
	default:
		return WrapError(op, err)
	}
}

// Enqueue submits the block's current data for I/O. bytesUsed == 0
// means "the whole block." cyclic must match the value the owning
// Buffer was created with; a second cyclic enqueue on the same buffer
// fails with a BadState error (spec §4.7 scenario 4).
func (b *Block) Enqueue(ctx context.Context, bytesUsed int, cyclic bool) error {
	return mapBlockErr("Block.Enqueue", b.inner.Enqueue(ctx, bytesUsed, cyclic))
}

// Dequeue waits for the block's in-flight I/O to complete.
// nonblock=true returns a WouldBlock error if the block isn't ready
// yet, or BadState if it was never enqueued (spec §8: "not
// WouldBlock").
func (b *Block) Dequeue(ctx context.Context, nonblock bool) error {
	return mapBlockErr("Block.Dequeue", b.inner.Dequeue(ctx, nonblock))
}
