// Package stream implements the Buffer/Block state machine and the
// Stream prefetch helper built on top of it. The per-block state
// machine mirrors the teacher's per-tag TagState machine in
// internal/queue: submit -> complete -> resubmit, with kernel I/O
// replaced by backend buffer I/O and FETCH/COMMIT replaced by
// enqueue/dequeue.
package stream

import (
	"context"
	"fmt"
	"sync"

	"github.com/openiio/goiio/internal/backend"
)

// State is a Block's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateEnqueued
	StateDone
	StateCancelled
	StateFreed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEnqueued:
		return "enqueued"
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	case StateFreed:
		return "freed"
	default:
		return "unknown"
	}
}

// Block is one fixed-size region of buffer sample data, state-machined
// per the diagram: idle -> enqueued -> done -> (reuse) enqueued, or
// enqueued -> cancelled/freed (terminal).
type Block struct {
	mu    sync.Mutex
	state State
	data  []byte

	buf   *Buffer
	inner *backend.Block
}

// Data returns the block's backing byte slice. Valid to read after a
// successful Dequeue; the caller must not retain it past the next
// Enqueue, since the backend may reuse the storage.
func (b *Block) Data() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

var (
	ErrAlreadyQueued       = fmt.Errorf("block already queued")
	ErrBadState            = fmt.Errorf("block in wrong state for this operation")
	ErrWouldBlock          = fmt.Errorf("would block")
	ErrCancelled           = fmt.Errorf("buffer cancelled")
	ErrCyclicAlreadyPushed = fmt.Errorf("cyclic buffer already has a pending block")
)

// Enqueue submits the block's current data for I/O. bytesUsed == 0
// means "the whole block." Fails with ErrAlreadyQueued unless the
// block is idle or done.
func (b *Block) Enqueue(ctx context.Context, bytesUsed int, cyclic bool) error {
	b.mu.Lock()
	if b.state != StateIdle && b.state != StateDone {
		b.mu.Unlock()
		return ErrAlreadyQueued
	}
	b.state = StateEnqueued
	b.mu.Unlock()

	if cyclic && !b.buf.cyclicPushed.CompareAndSwap(false, true) {
		b.mu.Lock()
		b.state = StateIdle
		b.mu.Unlock()
		return ErrCyclicAlreadyPushed
	}

	if b.buf.cancelled.Load() {
		b.mu.Lock()
		b.state = StateCancelled
		b.mu.Unlock()
		return ErrCancelled
	}

	err := b.buf.ctx.Backend.Enqueue(ctx, b.inner, bytesUsed, cyclic)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		if cyclic {
			b.state = StateIdle
		}
		return err
	}
	return nil
}

// Dequeue waits for the block's in-flight I/O to complete.
// nonblock=true returns ErrWouldBlock if the block isn't ready yet,
// or ErrBadState if it was never enqueued.
func (b *Block) Dequeue(ctx context.Context, nonblock bool) error {
	b.mu.Lock()
	state := b.state
	b.mu.Unlock()

	if state != StateEnqueued {
		return ErrBadState
	}

	if b.buf.cancelled.Load() {
		b.mu.Lock()
		b.state = StateCancelled
		b.mu.Unlock()
		return ErrCancelled
	}

	err := b.buf.ctx.Backend.Dequeue(ctx, b.inner, nonblock)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		if b.buf.cancelled.Load() {
			b.state = StateCancelled
			return ErrCancelled
		}
		return err
	}
	b.state = StateDone
	b.data = b.inner.Data
	return nil
}

// free transitions the block to its terminal freed state; called by
// Buffer.Close.
func (b *Block) free() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateFreed
}

func (b *Block) currentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
