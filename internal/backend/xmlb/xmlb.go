// Package xmlb implements the xml: backend: a read-only context built
// from a pre-captured XML document, either a file path or an inline
// "<?xml..." string. It has no live device behind it, so every
// operation beyond context/graph introspection is NotSupported.
package xmlb

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/openiio/goiio/internal/backend"
	"github.com/openiio/goiio/internal/mask"
	"github.com/openiio/goiio/internal/model"
	"github.com/openiio/goiio/internal/wire"
)

func init() {
	backend.Register("xml", func() backend.Backend { return New() })
}

// Backend is the xml: read-only document backend.
type Backend struct{}

// New constructs an xmlb Backend.
func New() *Backend { return &Backend{} }

var _ backend.Backend = (*Backend)(nil)

func (b *Backend) Capabilities() backend.Capabilities { return 0 }

type session struct {
	xml string
}

func (b *Backend) OpenContext(ctx context.Context, params backend.OpenParams, uri string) (*backend.Context, error) {
	arg := strings.TrimPrefix(uri, "xml:")

	var raw []byte
	if strings.HasPrefix(strings.TrimSpace(arg), "<?xml") {
		raw = []byte(arg)
	} else {
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("xmlb: read %s: %w", arg, err)
		}
		raw = data
	}

	xctx, err := wire.ParseXMLContext(raw)
	if err != nil {
		return nil, fmt.Errorf("xmlb: parse: %w", err)
	}

	return &backend.Context{
		Graph:   model.FromXML(xctx),
		URI:     uri,
		Backend: b,
		Session: &session{xml: string(raw)},
	}, nil
}

func (b *Backend) DestroyContext(c *backend.Context) error { return nil }

func (b *Backend) GetXML(c *backend.Context) (string, error) {
	return c.Session.(*session).xml, nil
}

func (b *Backend) Clone(c *backend.Context) (*backend.Context, error) {
	return b.OpenContext(context.Background(), backend.OpenParams{}, c.URI)
}

// errNotSupported is EOPNOTSUPP so that WrapError reports it as
// KindNotSupported: the document backend has no live device.
var errNotSupported error = syscall.EOPNOTSUPP

func (b *Backend) ReadAttr(ctx context.Context, c *backend.Context, ref backend.AttrRef) (string, error) {
	return "", errNotSupported
}
func (b *Backend) WriteAttr(ctx context.Context, c *backend.Context, ref backend.AttrRef, value string) error {
	return errNotSupported
}
func (b *Backend) OpenBuffer(ctx context.Context, c *backend.Context, deviceIdx int, m *mask.Mask, samplesCount int) (*backend.Buffer, error) {
	return nil, errNotSupported
}
func (b *Backend) CloseBuffer(buf *backend.Buffer) error  { return errNotSupported }
func (b *Backend) CancelBuffer(buf *backend.Buffer) error { return errNotSupported }
func (b *Backend) Enqueue(ctx context.Context, block *backend.Block, bytesUsed int, cyclic bool) error {
	return errNotSupported
}
func (b *Backend) Dequeue(ctx context.Context, block *backend.Block, nonblock bool) error {
	return errNotSupported
}
func (b *Backend) GetTrigger(c *backend.Context, deviceIdx int) (int, bool, error) {
	return 0, false, errNotSupported
}
func (b *Backend) SetTrigger(c *backend.Context, deviceIdx int, triggerIdx int, hasTrigger bool) error {
	return errNotSupported
}
func (b *Backend) RegRead(c *backend.Context, deviceIdx int, addr uint32) (uint32, error) {
	return 0, errNotSupported
}
func (b *Backend) RegWrite(c *backend.Context, deviceIdx int, addr uint32, value uint32) error {
	return errNotSupported
}
func (b *Backend) SetTimeout(c *backend.Context, ms int) error { return errNotSupported }
func (b *Backend) SetBuffersCount(c *backend.Context, deviceIdx int, count int) error {
	return errNotSupported
}
func (b *Backend) OpenEventStream(c *backend.Context, deviceIdx int) (*backend.EventStream, error) {
	return nil, errNotSupported
}
func (b *Backend) ReadEvent(ctx context.Context, es *backend.EventStream, nonblock bool) (backend.Event, error) {
	return backend.Event{}, errNotSupported
}
