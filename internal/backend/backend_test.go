package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openiio/goiio/internal/mask"
)

type stubBackend struct{}

func (stubBackend) Capabilities() Capabilities { return CapBuffer }
func (stubBackend) OpenContext(ctx context.Context, p OpenParams, uri string) (*Context, error) {
	return &Context{URI: uri}, nil
}
func (stubBackend) DestroyContext(c *Context) error { return nil }
func (stubBackend) GetXML(c *Context) (string, error) { return "", nil }
func (stubBackend) Clone(c *Context) (*Context, error) { return nil, errors.New("not supported") }
func (stubBackend) ReadAttr(ctx context.Context, c *Context, ref AttrRef) (string, error) {
	return "", nil
}
func (stubBackend) WriteAttr(ctx context.Context, c *Context, ref AttrRef, value string) error {
	return nil
}
func (stubBackend) OpenBuffer(ctx context.Context, c *Context, deviceIdx int, m *mask.Mask, samplesCount int) (*Buffer, error) {
	return &Buffer{Context: c, DeviceIdx: deviceIdx, Mask: m}, nil
}
func (stubBackend) CloseBuffer(buf *Buffer) error  { return nil }
func (stubBackend) CancelBuffer(buf *Buffer) error { return nil }
func (stubBackend) Enqueue(ctx context.Context, block *Block, bytesUsed int, cyclic bool) error {
	return nil
}
func (stubBackend) Dequeue(ctx context.Context, block *Block, nonblock bool) error { return nil }
func (stubBackend) GetTrigger(c *Context, deviceIdx int) (int, bool, error)        { return 0, false, nil }
func (stubBackend) SetTrigger(c *Context, deviceIdx int, triggerIdx int, hasTrigger bool) error {
	return nil
}
func (stubBackend) RegRead(c *Context, deviceIdx int, addr uint32) (uint32, error)  { return 0, nil }
func (stubBackend) RegWrite(c *Context, deviceIdx int, addr uint32, value uint32) error {
	return nil
}
func (stubBackend) SetTimeout(c *Context, ms int) error { return nil }
func (stubBackend) SetBuffersCount(c *Context, deviceIdx int, count int) error {
	return nil
}
func (stubBackend) OpenEventStream(c *Context, deviceIdx int) (*EventStream, error) {
	return &EventStream{DeviceIdx: deviceIdx}, nil
}
func (stubBackend) ReadEvent(ctx context.Context, es *EventStream, nonblock bool) (Event, error) {
	return Event{}, nil
}

func TestRegisterAndLookup(t *testing.T) {
	Register("stub-test", func() Backend { return stubBackend{} })

	b, err := Lookup("stub-test")
	require.NoError(t, err)
	require.True(t, b.Capabilities().Has(CapBuffer))

	c, err := b.OpenContext(context.Background(), OpenParams{}, "stub-test:foo")
	require.NoError(t, err)
	require.Equal(t, "stub-test:foo", c.URI)
}

func TestLookupUnknownScheme(t *testing.T) {
	_, err := Lookup("does-not-exist")
	require.Error(t, err)
}

func TestCapabilitiesHas(t *testing.T) {
	c := CapClone | CapEvents
	require.True(t, c.Has(CapClone))
	require.True(t, c.Has(CapEvents))
	require.False(t, c.Has(CapBuffer))
}
