// Package backend defines the capability-set vtable every IIO backend
// implements, and a URI-scheme registry that dispatches OpenContext to
// the right one.
package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/openiio/goiio/internal/mask"
	"github.com/openiio/goiio/internal/model"
)

// Capabilities is a bitmask of the optional operations a backend
// exposes, queried up front instead of discovering NotSupported one
// call at a time.
type Capabilities uint32

const (
	CapClone Capabilities = 1 << iota
	CapTrigger
	CapRegisterAccess
	CapEvents
	CapBuffer
)

func (c Capabilities) Has(want Capabilities) bool { return c&want == want }

// OpenParams carries backend-agnostic context-open options (currently
// just a timeout knob; backends ignore fields they don't use).
type OpenParams struct {
	Timeout int // milliseconds, 0 = backend default
}

// AttrRef identifies one attribute: a device attribute if ChannelIdx
// is -1, otherwise a channel attribute; IsDebug selects the device's
// debug namespace.
type AttrRef struct {
	DeviceIdx  int
	ChannelIdx int // -1 for device-level attributes
	IsDebug    bool
	Name       string
}

// Context is the handle returned by OpenContext: the immutable object
// graph plus whatever private session state the backend needs.
type Context struct {
	Graph   *model.Graph
	URI     string
	Backend Backend
	Session any // backend-private handle (fd, conn, etc.)
}

// Buffer is the handle returned by OpenBuffer.
type Buffer struct {
	Context    *Context
	DeviceIdx  int
	Mask       *mask.Mask
	FrameSize  int
	Cyclic     bool
	Session    any
}

// Block is one fixed-size region of buffer sample data.
type Block struct {
	Buffer  *Buffer
	Data    []byte
	Session any
}

// EventStream is the handle returned by OpenEventStream.
type EventStream struct {
	DeviceIdx int
	Session   any
}

// Event is one decoded 16-byte kernel IIO event.
type Event struct {
	Type             uint8
	Direction        uint8
	ChannelIndex     int
	ChannelDiffIndex int
	Timestamp        int64
}

// Backend is the capability set every IIO backend implements, per the
// vtable: open/destroy context, attribute I/O, buffer I/O, triggers,
// register access, and event streams. Operations a backend doesn't
// support must still be implemented; they return a NotSupported error
// and Capabilities() must not advertise them.
type Backend interface {
	Capabilities() Capabilities

	OpenContext(ctx context.Context, params OpenParams, uri string) (*Context, error)
	DestroyContext(c *Context) error
	GetXML(c *Context) (string, error)
	Clone(c *Context) (*Context, error)

	ReadAttr(ctx context.Context, c *Context, ref AttrRef) (string, error)
	WriteAttr(ctx context.Context, c *Context, ref AttrRef, value string) error

	OpenBuffer(ctx context.Context, c *Context, deviceIdx int, m *mask.Mask, samplesCount int) (*Buffer, error)
	CloseBuffer(buf *Buffer) error
	// CancelBuffer wakes any Enqueue/Dequeue currently blocked on buf
	// from another goroutine, per the sticky-cancellation rule; it
	// does not close buf.
	CancelBuffer(buf *Buffer) error
	Enqueue(ctx context.Context, block *Block, bytesUsed int, cyclic bool) error
	Dequeue(ctx context.Context, block *Block, nonblock bool) error

	GetTrigger(c *Context, deviceIdx int) (int, bool, error)
	SetTrigger(c *Context, deviceIdx int, triggerIdx int, hasTrigger bool) error

	RegRead(c *Context, deviceIdx int, addr uint32) (uint32, error)
	RegWrite(c *Context, deviceIdx int, addr uint32, value uint32) error

	// SetTimeout bounds how long subsequent blocking operations on c
	// wait before failing, where the backend has a notion of one
	// (e.g. the server-side TIMEOUT command for remote backends).
	SetTimeout(c *Context, ms int) error
	// SetBuffersCount resizes a device's kernel buffer ring.
	SetBuffersCount(c *Context, deviceIdx int, count int) error

	OpenEventStream(c *Context, deviceIdx int) (*EventStream, error)
	ReadEvent(ctx context.Context, es *EventStream, nonblock bool) (Event, error)
}

// Constructor builds a Backend for one URI scheme.
type Constructor func() Backend

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{}
)

// Register adds a backend constructor under a URI scheme (e.g.
// "local", "ip", "usb", "serial", "xml"). Called from each backend
// package's init().
func Register(scheme string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[scheme] = ctor
}

// Lookup resolves a URI scheme to a fresh Backend instance.
func Lookup(scheme string) (Backend, error) {
	registryMu.RLock()
	ctor, ok := registry[scheme]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("backend: no backend registered for scheme %q", scheme)
	}
	return ctor(), nil
}

// Schemes returns the URI schemes currently registered, for
// diagnostics and the scan aggregator.
func Schemes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for s := range registry {
		out = append(out, s)
	}
	return out
}
