package stream

import (
	"context"
	"fmt"
)

// Stream is the prefetching helper built on a Buffer: it owns
// nbBlocks blocks of stride*samplesPerBlock bytes and keeps exactly
// one dequeued and borrowed by the caller at a time. This mirrors the
// teacher's Runner.Prime (submit N, then cycle one-in-one-out)
// generalized from a fixed queue depth to nb_blocks.
type Stream struct {
	buf    *Buffer
	blocks []*Block
	next   int  // index of the block to dequeue next
	primed bool // whether the initial N enqueues have happened
	held   *Block
}

// NewStream allocates nbBlocks blocks of stride*samplesPerBlock bytes
// against buf.
func NewStream(buf *Buffer, nbBlocks, samplesPerBlock int) (*Stream, error) {
	if nbBlocks <= 0 {
		return nil, fmt.Errorf("stream: nbBlocks must be positive")
	}
	if buf.cyclic {
		return nil, fmt.Errorf("stream: cyclic buffers take a single directly-enqueued block, not a prefetch Stream")
	}
	stride := buf.FrameSize()
	size := stride * samplesPerBlock

	blocks := make([]*Block, nbBlocks)
	for i := range blocks {
		blocks[i] = buf.NewBlock(size)
	}
	return &Stream{buf: buf, blocks: blocks}, nil
}

// Next enqueues the previously-returned block (if any) and dequeues
// the next one in FIFO order, returning a borrow of it. The returned
// block remains borrowed until the caller calls Next again.
func (s *Stream) Next(ctx context.Context) (*Block, error) {
	if !s.primed {
		for _, b := range s.blocks {
			if err := b.Enqueue(ctx, 0, false); err != nil {
				return nil, fmt.Errorf("stream: prime enqueue: %w", err)
			}
		}
		s.primed = true
	} else if s.held != nil {
		if err := s.held.Enqueue(ctx, 0, false); err != nil {
			return nil, fmt.Errorf("stream: re-enqueue: %w", err)
		}
	}

	head := s.blocks[s.next]
	s.next = (s.next + 1) % len(s.blocks)

	if err := head.Dequeue(ctx, false); err != nil {
		return nil, fmt.Errorf("stream: dequeue: %w", err)
	}
	s.held = head
	return head, nil
}

// Close releases every block's underlying buffer.
func (s *Stream) Close() error {
	return s.buf.Close()
}
