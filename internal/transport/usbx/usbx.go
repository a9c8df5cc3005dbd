// Package usbx provides a thin bulk-endpoint Transport for the usb:
// URI scheme. Per spec, USB packetization details (endpoint
// descriptors, transfer fragmentation) are out of scope; this package
// only exposes the read/write/cancel surface backend/usbb needs,
// wired to a BulkEndpoint implementation supplied by the caller.
package usbx

import (
	"fmt"
	"time"
)

// BulkEndpoint is the minimal capability a USB host-side driver must
// offer for usbx to drive it: blocking bulk transfers with a
// wakeable cancel, the same shape ardnew-softusb's device pool
// exposes to its poll loop.
type BulkEndpoint interface {
	BulkRead(p []byte, timeout time.Duration) (int, error)
	BulkWrite(p []byte, timeout time.Duration) (int, error)
	Close() error
}

// Transport adapts a BulkEndpoint to the transport.Transport
// interface.
type Transport struct {
	ep       BulkEndpoint
	readTO   time.Duration
	writeTO  time.Duration
	canceled bool
}

// New wraps an already-opened BulkEndpoint (device enumeration and
// interface claiming happen in backend/usbb, which owns VID:PID
// matching).
func New(ep BulkEndpoint) *Transport {
	return &Transport{ep: ep}
}

func (t *Transport) Read(p []byte) (int, error) {
	if t.canceled {
		return 0, fmt.Errorf("usbx: transport cancelled")
	}
	return t.ep.BulkRead(p, t.readTO)
}

func (t *Transport) Write(p []byte) (int, error) {
	if t.canceled {
		return 0, fmt.Errorf("usbx: transport cancelled")
	}
	return t.ep.BulkWrite(p, t.writeTO)
}

func (t *Transport) Close() error { return t.ep.Close() }

func (t *Transport) SetReadDeadline(tm time.Time) error {
	t.readTO = untilOrZero(tm)
	return nil
}

func (t *Transport) SetWriteDeadline(tm time.Time) error {
	t.writeTO = untilOrZero(tm)
	return nil
}

// Cancel marks the transport permanently cancelled and closes the
// endpoint; a blocked BulkRead/BulkWrite is expected to observe the
// close and return, since libusb-style transfers unblock on device
// closure.
func (t *Transport) Cancel() {
	if t.canceled {
		return
	}
	t.canceled = true
	_ = t.ep.Close()
}

func untilOrZero(tm time.Time) time.Duration {
	if tm.IsZero() {
		return 0
	}
	return time.Until(tm)
}
