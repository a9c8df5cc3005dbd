// Package local implements the local: backend: sysfs attribute I/O,
// buffer I/O on the buffer chardev through io_uring when available and
// plain read(2)/write(2) otherwise, and the IIO event chardev. The
// buffer chardev is not mmapped and no block ioctls are issued.
package local

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/openiio/goiio/internal/backend"
	"github.com/openiio/goiio/internal/constants"
	"github.com/openiio/goiio/internal/logging"
	"github.com/openiio/goiio/internal/mask"
	"github.com/openiio/goiio/internal/model"
	"github.com/openiio/goiio/internal/ring"
	"github.com/openiio/goiio/internal/transport"
)

func init() {
	backend.Register("local", func() backend.Backend { return New() })
}

// Backend is the local: sysfs/ioctl backend. Each open Context holds
// its own sysfs root override (used by tests); production use leaves
// it empty and walks /sys/bus/iio/devices.
type Backend struct{}

// New constructs a local Backend.
func New() *Backend { return &Backend{} }

var _ backend.Backend = (*Backend)(nil)

func (b *Backend) Capabilities() backend.Capabilities {
	return backend.CapTrigger | backend.CapRegisterAccess | backend.CapEvents | backend.CapBuffer
}

type session struct {
	root      string // sysfs root, overridable for tests
	timeoutMs atomic.Int32
}

func (b *Backend) OpenContext(ctx context.Context, params backend.OpenParams, uri string) (*backend.Context, error) {
	root := strings.TrimPrefix(uri, "local:")
	g, err := buildGraph(root)
	if err != nil {
		return nil, fmt.Errorf("local: open context: %w", err)
	}
	return &backend.Context{Graph: g, URI: uri, Backend: b, Session: &session{root: root}}, nil
}

func (b *Backend) DestroyContext(c *backend.Context) error { return nil }

func (b *Backend) GetXML(c *backend.Context) (string, error) {
	return c.Graph.ToXML(), nil
}

func (b *Backend) Clone(c *backend.Context) (*backend.Context, error) {
	sess := c.Session.(*session)
	return b.OpenContext(context.Background(), backend.OpenParams{}, "local:"+sess.root)
}

var errNotSupported = fmt.Errorf("operation not supported by this backend")

func attrPath(sess *session, devID, chanFilename string) string {
	root := sess.root
	if root == "" {
		root = sysfsRoot
	}
	if chanFilename == "" {
		return root + "/" + devID
	}
	return root + "/" + devID + "/" + chanFilename
}

func (b *Backend) ReadAttr(ctx context.Context, c *backend.Context, ref backend.AttrRef) (string, error) {
	sess := c.Session.(*session)
	filename, devID, err := resolveAttrFile(c, ref)
	if err != nil {
		return "", err
	}
	path := attrPath(sess, devID, filename)

	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return "", fmt.Errorf("local: read_attr %s: %w", path, err)
	}
	defer unix.Close(fd)

	buf := make([]byte, constants.MaxAttrSize)
	n, err := unix.Read(fd, buf)
	if err != nil {
		return "", fmt.Errorf("local: read_attr %s: %w", path, err)
	}
	return strings.TrimRight(string(buf[:n]), "\n\x00"), nil
}

func (b *Backend) WriteAttr(ctx context.Context, c *backend.Context, ref backend.AttrRef, value string) error {
	sess := c.Session.(*session)
	filename, devID, err := resolveAttrFile(c, ref)
	if err != nil {
		return err
	}
	path := attrPath(sess, devID, filename)

	fd, err := unix.Open(path, unix.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("local: write_attr %s: %w", path, err)
	}
	defer unix.Close(fd)

	if _, err := unix.Write(fd, []byte(value)); err != nil {
		return fmt.Errorf("local: write_attr %s: %w", path, err)
	}
	return nil
}

func resolveAttrFile(c *backend.Context, ref backend.AttrRef) (filename, devID string, err error) {
	if ref.DeviceIdx < 0 || ref.DeviceIdx >= len(c.Graph.Devices) {
		return "", "", fmt.Errorf("local: device index %d out of range", ref.DeviceIdx)
	}
	dev := &c.Graph.Devices[ref.DeviceIdx]
	devID = dev.ID

	var attrs []model.Attribute
	switch {
	case ref.IsDebug:
		attrs = dev.DebugAttrs
	case ref.ChannelIdx < 0:
		attrs = dev.Attributes
	default:
		if ref.ChannelIdx >= len(dev.Channels) {
			return "", "", fmt.Errorf("local: channel index %d out of range", ref.ChannelIdx)
		}
		attrs = dev.Channels[ref.ChannelIdx].Attributes
	}
	for _, a := range attrs {
		if a.Name == ref.Name {
			return a.Filename, devID, nil
		}
	}
	return "", "", fmt.Errorf("local: attribute %q: %w", ref.Name, errAttrNotFound)
}

var errAttrNotFound = fmt.Errorf("attribute not found")

// bufferSession holds the open buffer chardev fd and either its
// io_uring ring or, when the ring cannot be created, the Canceller used
// by the read(2)/write(2) path.
type bufferSession struct {
	fd        int
	ring      *ring.Ring
	useRing   bool
	pushed    atomic.Bool // one-shot cyclic enqueue guard
	mu        sync.Mutex
	canceller *transport.Canceller // non-ring fallback path only
	sess      *session
}

// writeBufferAttr best-effort writes a buffer0/<leaf> sysfs attribute,
// the same "some channels/attrs may not exist on this device, don't
// fail the open over it" tolerance configureScanMask uses.
func writeBufferAttr(sess *session, dev *model.Device, leaf, val string) {
	root := sess.root
	if root == "" {
		root = sysfsRoot
	}
	fd, err := unix.Open(root+"/"+dev.ID+"/buffer0/"+leaf, unix.O_WRONLY, 0)
	if err != nil {
		return
	}
	unix.Write(fd, []byte(val))
	unix.Close(fd)
}

func (b *Backend) OpenBuffer(ctx context.Context, c *backend.Context, deviceIdx int, m *mask.Mask, samplesCount int) (*backend.Buffer, error) {
	sess := c.Session.(*session)
	if deviceIdx < 0 || deviceIdx >= len(c.Graph.Devices) {
		return nil, fmt.Errorf("local: open_buffer: device index %d out of range", deviceIdx)
	}
	dev := &c.Graph.Devices[deviceIdx]

	if err := configureScanMask(sess, dev, m); err != nil {
		return nil, err
	}
	if samplesCount <= 0 {
		samplesCount = constants.DefaultBufferLength
	}
	writeBufferAttr(sess, dev, "length", fmt.Sprintf("%d", samplesCount))

	devPath := attrPath(sess, dev.ID, "")
	chardev := strings.Replace(devPath, sysfsRoot, "/dev", 1)
	if sess.root != "" {
		chardev = "/dev/" + dev.ID
	}

	fd, err := unix.Open(chardev, unix.O_RDWR|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("local: open_buffer %s: %w", chardev, err)
	}

	bs := &bufferSession{fd: fd, sess: sess}
	r, ringErr := ring.New(fd, 16)
	if ringErr == nil {
		bs.ring = r
		bs.useRing = true
	} else {
		logging.Default().Debug("local: io_uring unavailable, using read/write", "error", ringErr)
		canc, cErr := transport.NewCanceller(fd)
		if cErr != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("local: open_buffer: cancel watch: %w", cErr)
		}
		bs.canceller = canc
	}

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

	return &backend.Buffer{
		Context:   c,
		DeviceIdx: deviceIdx,
		Mask:      m,
		FrameSize: frameSize,
		Session:   bs,
	}, nil
}

// configureScanMask toggles scan_elements/<chan>_en for every channel
// per the requested mask, the kernel's way of selecting which
// channels appear in the interleaved buffer frame.
func configureScanMask(sess *session, dev *model.Device, m *mask.Mask) error {
	root := sess.root
	if root == "" {
		root = sysfsRoot
	}
	for i := range dev.Channels {
		ch := &dev.Channels[i]
		if ch.ScanIndex < 0 {
			continue
		}
		enPath := root + "/" + dev.ID + "/scan_elements/" + ch.ID + "_en"
		val := "0"
		if m.IsEnabled(ch.ScanIndex) {
			val = "1"
		}
		fd, err := unix.Open(enPath, unix.O_WRONLY, 0)
		if err != nil {
			continue // some channels may not expose scan_elements; best-effort
		}
		unix.Write(fd, []byte(val))
		unix.Close(fd)
	}
	return nil
}

func (b *Backend) CloseBuffer(buf *backend.Buffer) error {
	bs := buf.Session.(*bufferSession)
	if bs.ring != nil {
		bs.ring.Close()
	}
	if bs.canceller != nil {
		bs.canceller.Close()
	}
	return unix.Close(bs.fd)
}

// CancelBuffer wakes a blocked Dequeue: the ring path via its own
// cancel-watch SQE, the fallback path via the epoll-based Canceller
// multiplexed with the chardev fd.
func (b *Backend) CancelBuffer(buf *backend.Buffer) error {
	bs := buf.Session.(*bufferSession)
	if bs.useRing {
		bs.ring.Cancel()
		return nil
	}
	if bs.canceller != nil {
		bs.canceller.Cancel()
	}
	return nil
}

func (b *Backend) Enqueue(ctx context.Context, block *backend.Block, bytesUsed int, cyclic bool) error {
	bs := block.Buffer.Session.(*bufferSession)
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if cyclic {
		if !bs.pushed.CompareAndSwap(false, true) {
			return fmt.Errorf("local: enqueue: %w", errCyclicAlreadyPushed)
		}
	}

	n := bytesUsed
	if n == 0 {
		n = len(block.Data)
	}

	if bs.useRing {
		if err := bs.ring.PrepareWrite(block.Data[:n], 0, 1); err != nil {
			return fmt.Errorf("local: enqueue: %w", err)
		}
		_, err := bs.ring.Flush()
		return err
	}

	_, err := unix.Write(bs.fd, block.Data[:n])
	if err != nil {
		return fmt.Errorf("local: enqueue: %w", err)
	}
	return nil
}

var errCyclicAlreadyPushed = fmt.Errorf("cyclic buffer already has a pending block")

func (b *Backend) Dequeue(ctx context.Context, block *backend.Block, nonblock bool) error {
	bs := block.Buffer.Session.(*bufferSession)

	if bs.useRing {
		if bs.ring.Cancelled() {
			return fmt.Errorf("local: dequeue: %w", errCancelled)
		}
		if err := bs.ring.ArmCancelWatch(); err != nil {
			return fmt.Errorf("local: dequeue: %w", err)
		}
		if err := bs.ring.PrepareRead(block.Data, 0, 2); err != nil {
			return fmt.Errorf("local: dequeue: %w", err)
		}
		if _, err := bs.ring.Flush(); err != nil {
			return err
		}
		results, err := bs.ring.WaitCompletion()
		if err != nil {
			return fmt.Errorf("local: dequeue: %w", err)
		}
		for _, r := range results {
			if r.UserData == ring.CancelUserData {
				return fmt.Errorf("local: dequeue: %w", errCancelled)
			}
			if r.Res < 0 {
				return fmt.Errorf("local: dequeue: errno %d", -r.Res)
			}
		}
		return nil
	}

	// Fallback path: the chardev fd is O_NONBLOCK, so a blocking
	// caller must itself wait for readability (or cancellation)
	// between read(2) attempts rather than treating EAGAIN as fatal.
	if nonblock {
		n, err := unix.Read(bs.fd, block.Data)
		if err != nil {
			if err == unix.EAGAIN {
				return fmt.Errorf("local: dequeue: %w", errWouldBlock)
			}
			return fmt.Errorf("local: dequeue: %w", err)
		}
		_ = n
		return nil
	}

	timeoutMs := -1
	if ms := bs.sess.timeoutMs.Load(); ms > 0 {
		timeoutMs = int(ms)
	}
	for {
		readable, err := bs.canceller.WaitReadable(timeoutMs)
		if err != nil {
			return fmt.Errorf("local: dequeue: %w", err)
		}
		if !readable {
			if bs.canceller.Cancelled() {
				return fmt.Errorf("local: dequeue: %w", errCancelled)
			}
			return fmt.Errorf("local: dequeue: %w", errTimedOut)
		}
		n, err := unix.Read(bs.fd, block.Data)
		if err != nil {
			if err == unix.EAGAIN {
				continue // spurious wakeup
			}
			return fmt.Errorf("local: dequeue: %w", err)
		}
		_ = n
		return nil
	}
}

var (
	errWouldBlock = fmt.Errorf("would block")
	errCancelled  = fmt.Errorf("cancelled")
	errTimedOut   = fmt.Errorf("timed out")
)

func (b *Backend) GetTrigger(c *backend.Context, deviceIdx int) (int, bool, error) {
	sess := c.Session.(*session)
	if deviceIdx < 0 || deviceIdx >= len(c.Graph.Devices) {
		return 0, false, fmt.Errorf("local: get_trigger: device index out of range")
	}
	dev := &c.Graph.Devices[deviceIdx]
	name, err := readTrimmed(attrPath(sess, dev.ID, "trigger/current_trigger"))
	if err != nil || name == "" {
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
	if deviceIdx < 0 || deviceIdx >= len(c.Graph.Devices) {
		return fmt.Errorf("local: set_trigger: device index out of range")
	}
	dev := &c.Graph.Devices[deviceIdx]
	path := attrPath(sess, dev.ID, "trigger/current_trigger")

	val := ""
	if hasTrigger {
		if triggerIdx < 0 || triggerIdx >= len(c.Graph.Devices) {
			return fmt.Errorf("local: set_trigger: trigger index out of range")
		}
		val = c.Graph.Devices[triggerIdx].Name
	}

	fd, err := unix.Open(path, unix.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("local: set_trigger %s: %w", path, err)
	}
	defer unix.Close(fd)
	_, err = unix.Write(fd, []byte(val))
	return err
}

// regAccessPath is the debugfs leaf the kernel exposes for raw
// register peek/poke, gated behind CONFIG_IIO_DEBUGFS.
const regAccessPath = "direct_reg_access"

func (b *Backend) RegRead(c *backend.Context, deviceIdx int, addr uint32) (uint32, error) {
	sess := c.Session.(*session)
	dev := &c.Graph.Devices[deviceIdx]
	path := "/sys/kernel/debug/iio/" + dev.ID + "/" + regAccessPath
	if sess.root != "" {
		path = sess.root + "/" + dev.ID + "/" + regAccessPath
	}

	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("local: reg_read: %w", err)
	}
	defer unix.Close(fd)

	if _, err := unix.Write(fd, []byte(fmt.Sprintf("0x%x", addr))); err != nil {
		return 0, fmt.Errorf("local: reg_read: %w", err)
	}
	buf := make([]byte, 64)
	n, err := unix.Read(fd, buf)
	if err != nil {
		return 0, fmt.Errorf("local: reg_read: %w", err)
	}
	var val uint32
	fmt.Sscanf(strings.TrimSpace(string(buf[:n])), "%x: %x", new(uint32), &val)
	return val, nil
}

func (b *Backend) RegWrite(c *backend.Context, deviceIdx int, addr uint32, value uint32) error {
	sess := c.Session.(*session)
	dev := &c.Graph.Devices[deviceIdx]
	path := "/sys/kernel/debug/iio/" + dev.ID + "/" + regAccessPath
	if sess.root != "" {
		path = sess.root + "/" + dev.ID + "/" + regAccessPath
	}

	fd, err := unix.Open(path, unix.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("local: reg_write: %w", err)
	}
	defer unix.Close(fd)

	_, err = unix.Write(fd, []byte(fmt.Sprintf("0x%x 0x%x", addr, value)))
	return err
}

// SetTimeout stores ms for subsequent blocking Dequeue calls to use as
// their WaitReadable deadline on the non-ring fallback path; the
// io_uring path has no analogous per-call timeout and ignores it.
func (b *Backend) SetTimeout(c *backend.Context, ms int) error {
	sess := c.Session.(*session)
	sess.timeoutMs.Store(int32(ms))
	return nil
}

// SetBuffersCount resizes a device's kernel buffer ring via its
// buffer0/buffers_count sysfs attribute.
func (b *Backend) SetBuffersCount(c *backend.Context, deviceIdx int, count int) error {
	sess := c.Session.(*session)
	if deviceIdx < 0 || deviceIdx >= len(c.Graph.Devices) {
		return fmt.Errorf("local: set_buffers_count: device index out of range")
	}
	dev := &c.Graph.Devices[deviceIdx]
	writeBufferAttr(sess, dev, "buffers_count", fmt.Sprintf("%d", count))
	return nil
}

type eventSession struct {
	fd int
}

// Close unblocks any thread currently parked in a blocking read(2) on
// this event fd, the local backend's half of EventStream destruction
// (the vtable has no close_event_stream op; destruction closes the fd
// a blocked reader is waiting on).
func (s *eventSession) Close() error {
	return unix.Close(s.fd)
}

// IIO_GET_EVENT_FD_IOCTL, from the kernel's uapi/linux/iio/events.h.
const iioGetEventFdIoctl = 0x80046990

func (b *Backend) OpenEventStream(c *backend.Context, deviceIdx int) (*backend.EventStream, error) {
	sess := c.Session.(*session)
	dev := &c.Graph.Devices[deviceIdx]
	devPath := attrPath(sess, dev.ID, "")
	chardev := strings.Replace(devPath, sysfsRoot, "/dev", 1)
	if sess.root != "" {
		chardev = "/dev/" + dev.ID
	}

	devFd, err := unix.Open(chardev, unix.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("local: open_event_stream: %w", err)
	}
	defer unix.Close(devFd)

	evFd, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(devFd), uintptr(iioGetEventFdIoctl), uintptr(0))
	if errno != 0 {
		return nil, fmt.Errorf("local: open_event_stream: ioctl: %w", errno)
	}

	return &backend.EventStream{DeviceIdx: deviceIdx, Session: &eventSession{fd: int(evFd)}}, nil
}

const eventStructSize = 16

func (b *Backend) ReadEvent(ctx context.Context, es *backend.EventStream, nonblock bool) (backend.Event, error) {
	sess := es.Session.(*eventSession)
	buf := make([]byte, eventStructSize)

	flags, _ := unix.FcntlInt(uintptr(sess.fd), unix.F_GETFL, 0)
	if nonblock {
		unix.FcntlInt(uintptr(sess.fd), unix.F_SETFL, flags|unix.O_NONBLOCK)
	} else {
		unix.FcntlInt(uintptr(sess.fd), unix.F_SETFL, flags&^unix.O_NONBLOCK)
	}

	n, err := unix.Read(sess.fd, buf)
	if err != nil {
		if err == unix.EAGAIN {
			return backend.Event{}, fmt.Errorf("local: read_event: %w", errWouldBlock)
		}
		return backend.Event{}, fmt.Errorf("local: read_event: %w", err)
	}
	if n != eventStructSize {
		return backend.Event{}, fmt.Errorf("local: read_event: short read (%d bytes)", n)
	}

	return decodeEvent(buf), nil
}

func decodeEvent(buf []byte) backend.Event {
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
