package iio

import (
	"context"
	"fmt"
	"sync"

	"github.com/openiio/goiio/internal/backend"
	ievent "github.com/openiio/goiio/internal/event"
	"github.com/openiio/goiio/internal/mask"
	"github.com/openiio/goiio/internal/model"
)

// This file is the in-process fake backend tests dial through
// CreateContext("mem:<key>") instead of a kernel or IIOD server,
// mirroring the teacher's MockBackend in spirit: exercise the real
// Context/Device/Channel/Buffer/EventStream wiring against a plain
// map-backed stand-in rather than a reimplementation of the wire
// protocol.

func init() {
	backend.Register("mem", func() backend.Backend { return &memoryBackend{} })
}

var (
	memGraphsMu sync.RWMutex
	memGraphs   = map[string]*model.Graph{}
)

// RegisterMemoryGraph installs an object graph under key, dialable as
// CreateContext("mem:" + key). Intended for tests only.
func RegisterMemoryGraph(key string, g *model.Graph) {
	g.Normalize()
	memGraphsMu.Lock()
	defer memGraphsMu.Unlock()
	memGraphs[key] = g
}

var errMemNotSupported = fmt.Errorf("mem: not supported by the fake backend")

type memoryBackend struct{}

var _ backend.Backend = (*memoryBackend)(nil)

func (*memoryBackend) Capabilities() backend.Capabilities {
	return backend.CapBuffer | backend.CapEvents | backend.CapTrigger | backend.CapRegisterAccess
}

type memSession struct {
	mu       sync.Mutex
	attrs    map[string]string
	triggers map[int]int
	regs     map[uint32]uint32
	events   map[int][]backend.Event
}

func attrKey(ref backend.AttrRef) string {
	return fmt.Sprintf("%d/%d/%v/%s", ref.DeviceIdx, ref.ChannelIdx, ref.IsDebug, ref.Name)
}

func (*memoryBackend) OpenContext(ctx context.Context, p backend.OpenParams, uri string) (*backend.Context, error) {
	key := uri
	if len(uri) >= len("mem:") {
		key = uri[len("mem:"):]
	}
	memGraphsMu.RLock()
	g, ok := memGraphs[key]
	memGraphsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("mem: no graph registered for %q", key)
	}
	return &backend.Context{
		Graph: g,
		URI:   uri,
		Session: &memSession{
			attrs:    map[string]string{},
			triggers: map[int]int{},
			regs:     map[uint32]uint32{},
			events:   map[int][]backend.Event{},
		},
	}, nil
}

func (*memoryBackend) DestroyContext(c *backend.Context) error { return nil }

func (*memoryBackend) GetXML(c *backend.Context) (string, error) { return c.Graph.ToXML(), nil }

func (*memoryBackend) Clone(c *backend.Context) (*backend.Context, error) {
	return nil, errMemNotSupported
}

func (*memoryBackend) ReadAttr(ctx context.Context, c *backend.Context, ref backend.AttrRef) (string, error) {
	sess := c.Session.(*memSession)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.attrs[attrKey(ref)], nil
}

func (*memoryBackend) WriteAttr(ctx context.Context, c *backend.Context, ref backend.AttrRef, value string) error {
	sess := c.Session.(*memSession)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.attrs[attrKey(ref)] = value
	return nil
}

func (*memoryBackend) OpenBuffer(ctx context.Context, c *backend.Context, deviceIdx int, m *mask.Mask, samplesCount int) (*backend.Buffer, error) {
	widths := map[int]int{}
	for _, ch := range c.Graph.Devices[deviceIdx].Channels {
		if ch.ScanIndex >= 0 {
			widths[ch.ScanIndex] = ch.Format.Storage
		}
	}
	_, frameSize := mask.ComputeLayout(m, widths)
	if frameSize == 0 {
		frameSize = 1
	}
	return &backend.Buffer{Context: c, DeviceIdx: deviceIdx, Mask: m, FrameSize: frameSize}, nil
}

func (*memoryBackend) CloseBuffer(buf *backend.Buffer) error  { return nil }
func (*memoryBackend) CancelBuffer(buf *backend.Buffer) error { return nil }

// Enqueue/Dequeue are synchronous: the fake backend has no hardware to
// wait on, so Enqueue fills the block with a deterministic pattern and
// Dequeue returns immediately, letting tests exercise the state
// machine and stream prefetch without any concurrency of their own.
func (*memoryBackend) Enqueue(ctx context.Context, block *backend.Block, bytesUsed int, cyclic bool) error {
	for i := range block.Data {
		block.Data[i] = byte(i)
	}
	return nil
}

func (*memoryBackend) Dequeue(ctx context.Context, block *backend.Block, nonblock bool) error {
	return nil
}

func (*memoryBackend) GetTrigger(c *backend.Context, deviceIdx int) (int, bool, error) {
	sess := c.Session.(*memSession)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	idx, ok := sess.triggers[deviceIdx]
	return idx, ok, nil
}

func (*memoryBackend) SetTrigger(c *backend.Context, deviceIdx int, triggerIdx int, hasTrigger bool) error {
	sess := c.Session.(*memSession)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !hasTrigger {
		delete(sess.triggers, deviceIdx)
		return nil
	}
	sess.triggers[deviceIdx] = triggerIdx
	return nil
}

func (*memoryBackend) RegRead(c *backend.Context, deviceIdx int, addr uint32) (uint32, error) {
	sess := c.Session.(*memSession)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.regs[addr], nil
}

func (*memoryBackend) RegWrite(c *backend.Context, deviceIdx int, addr uint32, value uint32) error {
	sess := c.Session.(*memSession)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.regs[addr] = value
	return nil
}

func (*memoryBackend) SetTimeout(c *backend.Context, ms int) error { return nil }

func (*memoryBackend) SetBuffersCount(c *backend.Context, deviceIdx int, count int) error { return nil }

func (*memoryBackend) OpenEventStream(c *backend.Context, deviceIdx int) (*backend.EventStream, error) {
	return &backend.EventStream{DeviceIdx: deviceIdx, Session: c.Session}, nil
}

func (*memoryBackend) ReadEvent(ctx context.Context, es *backend.EventStream, nonblock bool) (backend.Event, error) {
	sess := es.Session.(*memSession)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	q := sess.events[es.DeviceIdx]
	if len(q) == 0 {
		return backend.Event{}, ievent.ErrWouldBlock
	}
	ev := q[0]
	sess.events[es.DeviceIdx] = q[1:]
	return ev, nil
}

// PushMemoryEvent queues ev for the next ReadEvent on the device's
// event stream within the mem: context c. Intended for tests
// exercising EventStream.
func PushMemoryEvent(c *Context, deviceIdx int, ev Event) {
	sess := c.inner.Session.(*memSession)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.events[deviceIdx] = append(sess.events[deviceIdx], backend.Event{
		Type:             ev.Type,
		Direction:        ev.Direction,
		ChannelIndex:     ev.ChannelScanIndex,
		ChannelDiffIndex: ev.ChannelDiffIndex,
		Timestamp:        ev.TimestampNs,
	})
}
