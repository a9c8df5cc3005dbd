package iio

import (
	"context"

	"github.com/openiio/goiio/internal/stream"
)

// Stream is a prefetching convenience over a Buffer: it owns N blocks
// and presents them as a circular iterator. Each Next enqueues the
// just-returned block and dequeues the next one, preserving FIFO
// completion order (spec §4.7).
type Stream struct {
	inner *stream.Stream
}

// Next returns a borrow of the next ready block. The returned Block
// remains borrowed — safe to read via Data() — until the caller
// discards it and calls Next again.
func (s *Stream) Next(ctx context.Context) (*Block, error) {
	blk, err := s.inner.Next(ctx)
	if err != nil {
		return nil, WrapError("Stream.Next", err)
	}
	return &Block{inner: blk}, nil
}

// Close releases every block and the underlying Buffer.
func (s *Stream) Close() error { return WrapError("Stream.Close", s.inner.Close()) }
