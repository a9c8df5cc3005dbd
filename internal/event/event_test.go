package event

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openiio/goiio/internal/backend"
	"github.com/openiio/goiio/internal/mask"
	"github.com/openiio/goiio/internal/model"
)

// fakeEventSession is a channel-backed stand-in for a real event fd:
// ReadEvent blocks on a receive, Close unblocks every blocked reader
// by closing the channel, the same shape the local backend's real
// fd-close-based Destroy uses.
type fakeEventSession struct {
	ch     chan backend.Event
	closed chan struct{}
}

func (s *fakeEventSession) Close() error {
	close(s.closed)
	return nil
}

type fakeEventBackend struct{ sess *fakeEventSession }

var _ backend.Backend = (*fakeEventBackend)(nil)

func (f *fakeEventBackend) Capabilities() backend.Capabilities { return backend.CapEvents }
func (f *fakeEventBackend) OpenContext(ctx context.Context, p backend.OpenParams, uri string) (*backend.Context, error) {
	return nil, nil
}
func (f *fakeEventBackend) DestroyContext(c *backend.Context) error  { return nil }
func (f *fakeEventBackend) GetXML(c *backend.Context) (string, error) { return "", nil }
func (f *fakeEventBackend) Clone(c *backend.Context) (*backend.Context, error) { return nil, nil }
func (f *fakeEventBackend) ReadAttr(ctx context.Context, c *backend.Context, ref backend.AttrRef) (string, error) {
	return "", nil
}
func (f *fakeEventBackend) WriteAttr(ctx context.Context, c *backend.Context, ref backend.AttrRef, value string) error {
	return nil
}
func (f *fakeEventBackend) OpenBuffer(ctx context.Context, c *backend.Context, deviceIdx int, m *mask.Mask, samplesCount int) (*backend.Buffer, error) {
	return nil, nil
}
func (f *fakeEventBackend) CloseBuffer(buf *backend.Buffer) error  { return nil }
func (f *fakeEventBackend) CancelBuffer(buf *backend.Buffer) error { return nil }
func (f *fakeEventBackend) Enqueue(ctx context.Context, block *backend.Block, bytesUsed int, cyclic bool) error {
	return nil
}
func (f *fakeEventBackend) Dequeue(ctx context.Context, block *backend.Block, nonblock bool) error {
	return nil
}
func (f *fakeEventBackend) GetTrigger(c *backend.Context, deviceIdx int) (int, bool, error) {
	return 0, false, nil
}
func (f *fakeEventBackend) SetTrigger(c *backend.Context, deviceIdx int, triggerIdx int, hasTrigger bool) error {
	return nil
}
func (f *fakeEventBackend) RegRead(c *backend.Context, deviceIdx int, addr uint32) (uint32, error) {
	return 0, nil
}
func (f *fakeEventBackend) RegWrite(c *backend.Context, deviceIdx int, addr uint32, value uint32) error {
	return nil
}
func (f *fakeEventBackend) SetTimeout(c *backend.Context, ms int) error { return nil }
func (f *fakeEventBackend) SetBuffersCount(c *backend.Context, deviceIdx int, count int) error {
	return nil
}
func (f *fakeEventBackend) OpenEventStream(c *backend.Context, deviceIdx int) (*backend.EventStream, error) {
	return &backend.EventStream{DeviceIdx: deviceIdx, Session: f.sess}, nil
}
func (f *fakeEventBackend) ReadEvent(ctx context.Context, es *backend.EventStream, nonblock bool) (backend.Event, error) {
	sess := es.Session.(*fakeEventSession)
	if nonblock {
		select {
		case ev := <-sess.ch:
			return ev, nil
		default:
			return backend.Event{}, ErrWouldBlock
		}
	}
	select {
	case ev := <-sess.ch:
		return ev, nil
	case <-sess.closed:
		return backend.Event{}, fmt.Errorf("event: stream closed")
	}
}

func newTestStream(t *testing.T) (*fakeEventBackend, *Stream) {
	t.Helper()
	sess := &fakeEventSession{ch: make(chan backend.Event, 4), closed: make(chan struct{})}
	fb := &fakeEventBackend{sess: sess}
	bctx := &backend.Context{Backend: fb}
	s, err := Open(bctx, 0)
	require.NoError(t, err)
	return fb, s
}

func TestReadEventNonblockEmpty(t *testing.T) {
	_, s := newTestStream(t)
	_, err := s.ReadEvent(context.Background(), true)
	require.ErrorIs(t, err, ErrWouldBlock)
}

func TestReadEventDelivers(t *testing.T) {
	fb, s := newTestStream(t)
	fb.sess.ch <- backend.Event{Type: 1, ChannelIndex: 2}

	ev, err := s.ReadEvent(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, uint8(1), ev.Type)
	require.Equal(t, 2, ev.ChannelIndex)
}

func TestDestroyUnblocksReader(t *testing.T) {
	_, s := newTestStream(t)

	done := make(chan error, 1)
	go func() {
		_, err := s.ReadEvent(context.Background(), false)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.Destroy())

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("ReadEvent did not unblock after Destroy")
	}

	_, err := s.ReadEvent(context.Background(), false)
	require.ErrorIs(t, err, ErrCancelled)
}

// sampleGraph is a one-device graph whose channel at position 1 carries
// scan index 1, enough for ChannelRef to resolve.
func sampleGraph() *model.Graph {
	return &model.Graph{Devices: []model.Device{{
		ID:       "iio:device0",
		Channels: []model.Channel{{ID: "voltage0", ScanIndex: 0}, {ID: "voltage1", ScanIndex: 1}},
	}}}
}

func TestChannelRef(t *testing.T) {
	bctx := &backend.Context{}
	bctx.Graph = sampleGraph()
	idx, _, ok := ChannelRef(backend.Event{ChannelIndex: 1}, bctx, 0)
	require.True(t, ok)
	require.Equal(t, 1, idx)
}
