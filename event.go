package iio

import (
	"context"

	"github.com/openiio/goiio/internal/backend"
	ievent "github.com/openiio/goiio/internal/event"
)

// Event is one decoded hardware event: a type/direction pair packed
// into the kernel's 64-bit event code, a nanosecond monotonic
// timestamp, and the raw scan indices of the channel (and, for
// differential channels, the second channel) it refers to (spec §4.8).
type Event struct {
	Type             uint8
	Direction        uint8
	TimestampNs      int64
	ChannelScanIndex int
	ChannelDiffIndex int
}

func newEvent(e backend.Event) Event {
	return Event{
		Type:             e.Type,
		Direction:        e.Direction,
		TimestampNs:      e.Timestamp,
		ChannelScanIndex: e.ChannelIndex,
		ChannelDiffIndex: e.ChannelDiffIndex,
	}
}

// EventStream is a handle to a device's event queue (spec §3/§4.8).
// Destroy is safe to call from any goroutine at any time, same as
// Buffer.Cancel (spec §5's two "poison" operations).
type EventStream struct {
	ctx       *Context
	deviceIdx int
	inner     *ievent.Stream
}

func newEventStream(ctx *Context, deviceIdx int) (*EventStream, error) {
	inner, err := ievent.Open(ctx.inner, deviceIdx)
	if err != nil {
		return nil, WrapError("CreateEventStream", err)
	}
	return &EventStream{ctx: ctx, deviceIdx: deviceIdx, inner: inner}, nil
}

// ReadEvent decodes the next event. nonblock=true returns a
// WouldBlock error if none is queued yet; nonblock=false blocks until
// one arrives or the stream is destroyed (Cancelled).
func (es *EventStream) ReadEvent(ctx context.Context, nonblock bool) (Event, error) {
	ev, err := es.inner.ReadEvent(ctx, nonblock)
	if err != nil {
		switch err {
		case ievent.ErrWouldBlock:
			return Event{}, NewError("EventStream.ReadEvent", KindWouldBlock, "event queue empty")
		case ievent.ErrCancelled:
			return Event{}, NewError("EventStream.ReadEvent", KindCancelled, "event stream destroyed")
		default:
			return Event{}, WrapError("EventStream.ReadEvent", err)
		}
	}
	es.ctx.opts.Observer.ObserveEvent(true)
	return newEvent(ev), nil
}

// Channel resolves ev's packed channel scan index against this
// stream's device channel list, per spec §4.8 ("the caller resolves
// indices to channels by scanning the device's channel list").
func (es *EventStream) Channel(ev Event) (*Channel, error) {
	raw := backend.Event{ChannelIndex: ev.ChannelScanIndex, ChannelDiffIndex: ev.ChannelDiffIndex}
	idx, _, ok := ievent.ChannelRef(raw, es.ctx.inner, es.deviceIdx)
	if !ok {
		return nil, NewError("EventStream.Channel", KindNotFound, "no channel matches event scan index")
	}
	dev := &Device{ctx: es.ctx, idx: es.deviceIdx}
	return &Channel{dev: dev, idx: idx}, nil
}

// Destroy is one-shot and sticky: it unblocks any goroutine parked in
// ReadEvent and marks every subsequent call Cancelled.
func (es *EventStream) Destroy() error {
	return WrapError("EventStream.Destroy", es.inner.Destroy())
}
