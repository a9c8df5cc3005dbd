// Package remote implements the shared IIOD-client-over-a-Transport
// backend logic common to the ip:, usb:, and serial: URI schemes: each
// just supplies a transport.Dialer and a scheme prefix, this package
// does the wire.Codec plumbing once.
package remote

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/openiio/goiio/internal/backend"
	"github.com/openiio/goiio/internal/constants"
	"github.com/openiio/goiio/internal/mask"
	"github.com/openiio/goiio/internal/model"
	"github.com/openiio/goiio/internal/transport"
	"github.com/openiio/goiio/internal/wire"
)

// Backend is a generic wire.Codec-based backend.Backend, parameterized
// by URI scheme and Dialer.
type Backend struct {
	Scheme string
	Dialer transport.Dialer
	Caps   backend.Capabilities
}

var _ backend.Backend = (*Backend)(nil)

func (b *Backend) Capabilities() backend.Capabilities { return b.Caps }

type session struct {
	tr       transport.Transport
	codec    *wire.Codec
	version  wire.Version
	clientID uint32
	target   string
}

func (s *session) nextClientID() uint16 {
	return uint16(atomic.AddUint32(&s.clientID, 1))
}

func (b *Backend) OpenContext(ctx context.Context, params backend.OpenParams, uri string) (*backend.Context, error) {
	target := strings.TrimPrefix(uri, b.Scheme+":")
	tr, err := b.Dialer.Dial(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("%s: dial %s: %w", b.Scheme, target, err)
	}

	codec, version, err := wire.Negotiate(tr)
	if err != nil {
		tr.Close()
		return nil, fmt.Errorf("%s: negotiate: %w", b.Scheme, err)
	}

	sess := &session{tr: tr, codec: codec, version: version, target: target}

	xmlStr, err := b.fetchXML(sess)
	if err != nil {
		tr.Close()
		return nil, err
	}
	xctx, err := wire.ParseXMLContext([]byte(xmlStr))
	if err != nil {
		tr.Close()
		return nil, fmt.Errorf("%s: parse context xml: %w", b.Scheme, err)
	}

	return &backend.Context{Graph: model.FromXML(xctx), URI: uri, Backend: b, Session: sess}, nil
}

func (b *Backend) fetchXML(sess *session) (string, error) {
	if sess.codec.Protocol() == wire.ProtocolV1 {
		resp, err := sess.codec.DoFrame(wire.Frame{Opcode: wire.OpPrint, ClientID: sess.nextClientID()})
		if err != nil {
			return "", fmt.Errorf("%s: print: %w", b.Scheme, err)
		}
		return string(resp.Payload), nil
	}
	reply, err := sess.codec.Do(wire.Print())
	if err != nil {
		return "", fmt.Errorf("%s: print: %w", b.Scheme, err)
	}
	return string(reply.Data), nil
}

func (b *Backend) DestroyContext(c *backend.Context) error {
	return c.Session.(*session).tr.Close()
}

func (b *Backend) GetXML(c *backend.Context) (string, error) {
	return b.fetchXML(c.Session.(*session))
}

func (b *Backend) Clone(c *backend.Context) (*backend.Context, error) {
	sess := c.Session.(*session)
	return b.OpenContext(context.Background(), backend.OpenParams{}, b.Scheme+":"+sess.target)
}

func (b *Backend) ReadAttr(ctx context.Context, c *backend.Context, ref backend.AttrRef) (string, error) {
	sess := c.Session.(*session)
	device, channel, attr, err := resolveNames(c, ref)
	if err != nil {
		return "", err
	}

	if sess.codec.Protocol() == wire.ProtocolV1 {
		resp, err := sess.codec.DoFrame(wire.Frame{Opcode: wire.OpReadAttr, ClientID: sess.nextClientID(), Payload: []byte(attr)})
		if err != nil {
			return "", fmt.Errorf("%s: read_attr: %w", b.Scheme, err)
		}
		return string(resp.Payload), nil
	}

	reply, err := sess.codec.Do(wire.ReadAttr(device, channel, attr))
	if err != nil {
		return "", fmt.Errorf("%s: read_attr: %w", b.Scheme, err)
	}
	return string(reply.Data), nil
}

func (b *Backend) WriteAttr(ctx context.Context, c *backend.Context, ref backend.AttrRef, value string) error {
	sess := c.Session.(*session)
	device, channel, attr, err := resolveNames(c, ref)
	if err != nil {
		return err
	}

	if sess.codec.Protocol() == wire.ProtocolV1 {
		_, err := sess.codec.DoFrame(wire.Frame{Opcode: wire.OpWriteAttr, ClientID: sess.nextClientID(), Payload: []byte(attr + "\x00" + value)})
		if err != nil {
			return fmt.Errorf("%s: write_attr: %w", b.Scheme, err)
		}
		return nil
	}

	if _, err := sess.codec.DoWithPayload(wire.WriteAttr(device, channel, attr, len(value)), []byte(value)); err != nil {
		return fmt.Errorf("%s: write_attr: %w", b.Scheme, err)
	}
	return nil
}

func resolveNames(c *backend.Context, ref backend.AttrRef) (device, channel, attr string, err error) {
	if ref.DeviceIdx < 0 || ref.DeviceIdx >= len(c.Graph.Devices) {
		return "", "", "", fmt.Errorf("remote: device index %d out of range", ref.DeviceIdx)
	}
	dev := &c.Graph.Devices[ref.DeviceIdx]
	device = dev.ID

	var attrs []model.Attribute
	switch {
	case ref.IsDebug:
		attrs = dev.DebugAttrs
	case ref.ChannelIdx < 0:
		attrs = dev.Attributes
	default:
		if ref.ChannelIdx >= len(dev.Channels) {
			return "", "", "", fmt.Errorf("remote: channel index %d out of range", ref.ChannelIdx)
		}
		channel = dev.Channels[ref.ChannelIdx].ID
		attrs = dev.Channels[ref.ChannelIdx].Attributes
	}
	for _, a := range attrs {
		if a.Name == ref.Name {
			return device, channel, a.Name, nil
		}
	}
	return "", "", "", fmt.Errorf("remote: attribute %q not found", ref.Name)
}

type bufferSession struct {
	sess     *session
	device   string
	devIndex uint8
	pushed   atomic.Bool
}

func (b *Backend) OpenBuffer(ctx context.Context, c *backend.Context, deviceIdx int, m *mask.Mask, samplesCount int) (*backend.Buffer, error) {
	sess := c.Session.(*session)
	if deviceIdx < 0 || deviceIdx >= len(c.Graph.Devices) {
		return nil, fmt.Errorf("%s: open_buffer: device index out of range", b.Scheme)
	}
	dev := &c.Graph.Devices[deviceIdx]

	storageBits := map[int]int{}
	for _, ch := range dev.Channels {
		if ch.ScanIndex >= 0 {
			storageBits[ch.ScanIndex] = ch.Format.Storage
		}
	}
	_, frameSize := mask.ComputeLayout(m, storageBits)
	if frameSize == 0 {
		frameSize = 1
	}
	if samplesCount <= 0 {
		samplesCount = constants.DefaultBufferLength
	}

	if sess.codec.Protocol() == wire.ProtocolV1 {
		payload := fmt.Sprintf("%s %d 0", m.String(), samplesCount)
		if _, err := sess.codec.DoFrame(wire.Frame{Opcode: wire.OpOpenBuffer, DevIndex: uint8(deviceIdx), ClientID: sess.nextClientID(), Payload: []byte(payload)}); err != nil {
			return nil, fmt.Errorf("%s: open_buffer: %w", b.Scheme, err)
		}
	} else if _, err := sess.codec.Do(wire.Open(dev.ID, m.String(), samplesCount, false)); err != nil {
		return nil, fmt.Errorf("%s: open_buffer: %w", b.Scheme, err)
	}

	return &backend.Buffer{
		Context:   c,
		DeviceIdx: deviceIdx,
		Mask:      m,
		FrameSize: frameSize,
		Session:   &bufferSession{sess: sess, device: dev.ID, devIndex: uint8(deviceIdx)},
	}, nil
}

func (b *Backend) CloseBuffer(buf *backend.Buffer) error {
	bs := buf.Session.(*bufferSession)
	if bs.sess.codec.Protocol() == wire.ProtocolV1 {
		_, err := bs.sess.codec.DoFrame(wire.Frame{Opcode: wire.OpCloseBuffer, DevIndex: bs.devIndex, ClientID: bs.sess.nextClientID()})
		return err
	}
	_, err := bs.sess.codec.Do(wire.CloseCmd(bs.device))
	return err
}

// CancelBuffer wakes any Enqueue/Dequeue blocked reading or writing
// the transport, by way of the transport's own sticky Cancel.
func (b *Backend) CancelBuffer(buf *backend.Buffer) error {
	bs := buf.Session.(*bufferSession)
	bs.sess.tr.Cancel()
	return nil
}

func (b *Backend) Enqueue(ctx context.Context, block *backend.Block, bytesUsed int, cyclic bool) error {
	bs := block.Buffer.Session.(*bufferSession)
	if cyclic && !bs.pushed.CompareAndSwap(false, true) {
		return fmt.Errorf("%s: enqueue: cyclic buffer already has a pending block", b.Scheme)
	}
	n := bytesUsed
	if n == 0 {
		n = len(block.Data)
	}

	if bs.sess.codec.Protocol() == wire.ProtocolV1 {
		_, err := bs.sess.codec.DoFrame(wire.Frame{Opcode: wire.OpWriteBuffer, DevIndex: bs.devIndex, ClientID: bs.sess.nextClientID(), Payload: block.Data[:n]})
		if err != nil {
			return fmt.Errorf("%s: enqueue: %w", b.Scheme, err)
		}
		return nil
	}

	if _, err := bs.sess.codec.DoWithPayload(wire.WriteBuf(bs.device, n), block.Data[:n]); err != nil {
		return fmt.Errorf("%s: enqueue: %w", b.Scheme, err)
	}
	return nil
}

func (b *Backend) Dequeue(ctx context.Context, block *backend.Block, nonblock bool) error {
	bs := block.Buffer.Session.(*bufferSession)

	if bs.sess.codec.Protocol() == wire.ProtocolV1 {
		resp, err := bs.sess.codec.DoFrame(wire.Frame{Opcode: wire.OpReadBuffer, DevIndex: bs.devIndex, ClientID: bs.sess.nextClientID(), Payload: []byte(fmt.Sprintf("%d", len(block.Data)))})
		if err != nil {
			return fmt.Errorf("%s: dequeue: %w", b.Scheme, err)
		}
		copy(block.Data, resp.Payload)
		return nil
	}

	reply, err := bs.sess.codec.Do(wire.ReadBuf(bs.device, len(block.Data)))
	if err != nil {
		return fmt.Errorf("%s: dequeue: %w", b.Scheme, err)
	}
	copy(block.Data, reply.Data)
	return nil
}

func (b *Backend) GetTrigger(c *backend.Context, deviceIdx int) (int, bool, error) {
	sess := c.Session.(*session)
	if sess.codec.Protocol() == wire.ProtocolV1 {
		return 0, false, fmt.Errorf("%s: get_trigger: requires v0 dialect", b.Scheme)
	}
	if deviceIdx < 0 || deviceIdx >= len(c.Graph.Devices) {
		return 0, false, fmt.Errorf("%s: get_trigger: device index out of range", b.Scheme)
	}
	dev := &c.Graph.Devices[deviceIdx]
	reply, err := sess.codec.Do(wire.GetTrig(dev.ID))
	if err != nil {
		return 0, false, fmt.Errorf("%s: get_trigger: %w", b.Scheme, err)
	}
	name := strings.TrimSpace(string(reply.Data))
	if name == "" {
		return 0, false, nil
	}
	for i := range c.Graph.Devices {
		if c.Graph.Devices[i].Name == name {
			return i, true, nil
		}
	}
	return 0, false, nil
}

func (b *Backend) SetTrigger(c *backend.Context, deviceIdx int, triggerIdx int, hasTrigger bool) error {
	sess := c.Session.(*session)
	if sess.codec.Protocol() == wire.ProtocolV1 {
		return fmt.Errorf("%s: set_trigger: requires v0 dialect", b.Scheme)
	}
	if deviceIdx < 0 || deviceIdx >= len(c.Graph.Devices) {
		return fmt.Errorf("%s: set_trigger: device index out of range", b.Scheme)
	}
	dev := &c.Graph.Devices[deviceIdx]

	trigName := ""
	if hasTrigger {
		if triggerIdx < 0 || triggerIdx >= len(c.Graph.Devices) {
			return fmt.Errorf("%s: set_trigger: trigger index out of range", b.Scheme)
		}
		trigName = c.Graph.Devices[triggerIdx].Name
	}
	if _, err := sess.codec.Do(wire.SetTrig(dev.ID, trigName)); err != nil {
		return fmt.Errorf("%s: set_trigger: %w", b.Scheme, err)
	}
	return nil
}

// regAccessAttr is the debug attribute IIOD exposes for raw register
// peek/poke, the same debugfs leaf the local backend reads and writes
// directly.
const regAccessAttr = "direct_reg_access"

func (b *Backend) RegRead(c *backend.Context, deviceIdx int, addr uint32) (uint32, error) {
	sess := c.Session.(*session)
	if deviceIdx < 0 || deviceIdx >= len(c.Graph.Devices) {
		return 0, fmt.Errorf("%s: reg_read: device index out of range", b.Scheme)
	}
	dev := &c.Graph.Devices[deviceIdx]
	primer := fmt.Sprintf("0x%x", addr)

	if sess.codec.Protocol() == wire.ProtocolV1 {
		if _, err := sess.codec.DoFrame(wire.Frame{Opcode: wire.OpWriteAttr, ClientID: sess.nextClientID(), Payload: []byte(regAccessAttr + "\x00" + primer)}); err != nil {
			return 0, fmt.Errorf("%s: reg_read: %w", b.Scheme, err)
		}
		resp, err := sess.codec.DoFrame(wire.Frame{Opcode: wire.OpReadAttr, ClientID: sess.nextClientID(), Payload: []byte(regAccessAttr)})
		if err != nil {
			return 0, fmt.Errorf("%s: reg_read: %w", b.Scheme, err)
		}
		return parseRegReply(string(resp.Payload)), nil
	}

	if _, err := sess.codec.DoWithPayload(wire.WriteAttr(dev.ID, "", regAccessAttr, len(primer)), []byte(primer)); err != nil {
		return 0, fmt.Errorf("%s: reg_read: %w", b.Scheme, err)
	}
	reply, err := sess.codec.Do(wire.ReadAttr(dev.ID, "", regAccessAttr))
	if err != nil {
		return 0, fmt.Errorf("%s: reg_read: %w", b.Scheme, err)
	}
	return parseRegReply(string(reply.Data)), nil
}

func parseRegReply(s string) uint32 {
	var addr, val uint32
	fmt.Sscanf(strings.TrimSpace(s), "%x: %x", &addr, &val)
	return val
}

func (b *Backend) RegWrite(c *backend.Context, deviceIdx int, addr uint32, value uint32) error {
	sess := c.Session.(*session)
	if deviceIdx < 0 || deviceIdx >= len(c.Graph.Devices) {
		return fmt.Errorf("%s: reg_write: device index out of range", b.Scheme)
	}
	dev := &c.Graph.Devices[deviceIdx]
	payload := fmt.Sprintf("0x%x 0x%x", addr, value)

	if sess.codec.Protocol() == wire.ProtocolV1 {
		_, err := sess.codec.DoFrame(wire.Frame{Opcode: wire.OpWriteAttr, ClientID: sess.nextClientID(), Payload: []byte(regAccessAttr + "\x00" + payload)})
		if err != nil {
			return fmt.Errorf("%s: reg_write: %w", b.Scheme, err)
		}
		return nil
	}

	if _, err := sess.codec.DoWithPayload(wire.WriteAttr(dev.ID, "", regAccessAttr, len(payload)), []byte(payload)); err != nil {
		return fmt.Errorf("%s: reg_write: %w", b.Scheme, err)
	}
	return nil
}

func (b *Backend) SetTimeout(c *backend.Context, ms int) error {
	sess := c.Session.(*session)
	if sess.codec.Protocol() == wire.ProtocolV1 {
		_, err := sess.codec.DoFrame(wire.Frame{Opcode: wire.OpTimeout, ClientID: sess.nextClientID(), Payload: []byte(fmt.Sprintf("%d", ms))})
		if err != nil {
			return fmt.Errorf("%s: set_timeout: %w", b.Scheme, err)
		}
		return nil
	}
	if _, err := sess.codec.Do(wire.SetTimeout(ms)); err != nil {
		return fmt.Errorf("%s: set_timeout: %w", b.Scheme, err)
	}
	return nil
}

func (b *Backend) SetBuffersCount(c *backend.Context, deviceIdx int, count int) error {
	sess := c.Session.(*session)
	if sess.codec.Protocol() == wire.ProtocolV1 {
		return fmt.Errorf("%s: set_buffers_count: requires v0 dialect", b.Scheme)
	}
	if deviceIdx < 0 || deviceIdx >= len(c.Graph.Devices) {
		return fmt.Errorf("%s: set_buffers_count: device index out of range", b.Scheme)
	}
	dev := &c.Graph.Devices[deviceIdx]
	if _, err := sess.codec.Do(wire.SetBuffersCount(dev.ID, count)); err != nil {
		return fmt.Errorf("%s: set_buffers_count: %w", b.Scheme, err)
	}
	return nil
}

type eventSession struct {
	sess *session
}

func (b *Backend) OpenEventStream(c *backend.Context, deviceIdx int) (*backend.EventStream, error) {
	return &backend.EventStream{DeviceIdx: deviceIdx, Session: &eventSession{sess: c.Session.(*session)}}, nil
}

func (b *Backend) ReadEvent(ctx context.Context, es *backend.EventStream, nonblock bool) (backend.Event, error) {
	evSess := es.Session.(*eventSession)
	if evSess.sess.codec.Protocol() != wire.ProtocolV1 {
		return backend.Event{}, fmt.Errorf("%s: read_event: requires v1 dialect", b.Scheme)
	}
	resp, err := evSess.sess.codec.DoFrame(wire.Frame{Opcode: wire.OpGetEvents, DevIndex: uint8(es.DeviceIdx), ClientID: evSess.sess.nextClientID()})
	if err != nil {
		return backend.Event{}, fmt.Errorf("%s: read_event: %w", b.Scheme, err)
	}
	if len(resp.Payload) < 16 {
		return backend.Event{}, fmt.Errorf("%s: read_event: short payload", b.Scheme)
	}
	return decodeEventPayload(resp.Payload), nil
}

func decodeEventPayload(buf []byte) backend.Event {
	var id uint64
	for i := 0; i < 8; i++ {
		id |= uint64(buf[i]) << (8 * i)
	}
	var ts int64
	for i := 0; i < 8; i++ {
		ts |= int64(buf[8+i]) << (8 * i)
	}
	return backend.Event{
		Type:             uint8((id >> 56) & 0xff),
		Direction:        uint8((id >> 48) & 0x7f),
		ChannelIndex:     int((id >> 0) & 0xffff),
		ChannelDiffIndex: int((id >> 16) & 0xffff),
		Timestamp:        ts,
	}
}
