// Package event wraps a backend.EventStream with the destroy/cancel
// semantics spec's vtable leaves implicit: there is no
// close_event_stream op, so destruction means closing whatever fd a
// blocked reader is parked on and letting that error surface as
// Cancelled.
package event

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/openiio/goiio/internal/backend"
)

var (
	ErrWouldBlock = errors.New("event queue empty")
	ErrCancelled  = errors.New("event stream destroyed")
)

// Stream is a single-producer single-consumer queue of decoded IIO
// events backed by one backend.EventStream.
type Stream struct {
	ctx       *backend.Context
	inner     *backend.EventStream
	destroyed atomic.Bool
}

// Open opens an event stream for deviceIdx on ctx.
func Open(ctx *backend.Context, deviceIdx int) (*Stream, error) {
	inner, err := ctx.Backend.OpenEventStream(ctx, deviceIdx)
	if err != nil {
		return nil, fmt.Errorf("event: open_event_stream: %w", err)
	}
	return &Stream{ctx: ctx, inner: inner}, nil
}

// ReadEvent decodes the next event. nonblock=true returns
// ErrWouldBlock if none is queued yet; nonblock=false blocks until one
// arrives, the stream is destroyed (ErrCancelled), or the backend
// itself errors.
func (s *Stream) ReadEvent(ctx context.Context, nonblock bool) (backend.Event, error) {
	if s.destroyed.Load() {
		return backend.Event{}, ErrCancelled
	}

	ev, err := s.ctx.Backend.ReadEvent(ctx, s.inner, nonblock)
	if err != nil {
		if s.destroyed.Load() {
			return backend.Event{}, ErrCancelled
		}
		return backend.Event{}, err
	}
	return ev, nil
}

// Destroy is one-shot and sticky: it closes the stream's underlying
// handle (unblocking a parked reader) and marks every subsequent
// ReadEvent call Cancelled.
func (s *Stream) Destroy() error {
	if !s.destroyed.CompareAndSwap(false, true) {
		return nil
	}
	if closer, ok := s.inner.Session.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// ChannelRef resolves an event's packed channel indices against a
// device's channel list, per spec's "caller resolves indices to
// channels by scanning the device's channel list."
func ChannelRef(ev backend.Event, dev *backend.Context, deviceIdx int) (channelIdx int, diffIdx int, ok bool) {
	if deviceIdx < 0 || deviceIdx >= len(dev.Graph.Devices) {
		return 0, 0, false
	}
	channels := dev.Graph.Devices[deviceIdx].Channels
	for i, ch := range channels {
		if ch.ScanIndex == ev.ChannelIndex {
			return i, ev.ChannelDiffIndex, true
		}
	}
	return 0, 0, false
}
