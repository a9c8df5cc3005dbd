// Package usbb implements the usb: backend: an IIOD client tunneled
// over a USB bulk endpoint pair, one physical device multiplexing
// several logical contexts by interface byte.
package usbb

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/openiio/goiio/internal/backend"
	"github.com/openiio/goiio/internal/backend/remote"
	"github.com/openiio/goiio/internal/transport"
	"github.com/openiio/goiio/internal/transport/usbx"
)

func init() {
	backend.Register("usb", func() backend.Backend { return New(nil) })
}

// EndpointOpener opens the bulk endpoint pair for one usb:<bus>.<port>.<iface>
// address. Real USB enumeration/descriptor parsing is out of scope;
// production callers supply an implementation backed by their libusb
// binding of choice. New's default opener always fails, making the
// usb: scheme registered but inert until a caller wires one in.
type EndpointOpener func(bus, port, iface int) (usbx.BulkEndpoint, error)

func defaultOpener(bus, port, iface int) (usbx.BulkEndpoint, error) {
	return nil, fmt.Errorf("usbb: no EndpointOpener configured for this platform")
}

// New constructs a usb: Backend. Pass nil to use the inert default
// opener; production builds should supply a real one via NewWithOpener.
func New(opener EndpointOpener) *remote.Backend {
	if opener == nil {
		opener = defaultOpener
	}
	return &remote.Backend{
		Scheme: "usb",
		Dialer: usbDialer{opener: opener},
		Caps:   backend.CapBuffer | backend.CapTrigger | backend.CapRegisterAccess,
	}
}

// NewWithOpener constructs a usb: Backend with a specific endpoint
// opener, the production wiring point for a real USB host stack.
func NewWithOpener(opener EndpointOpener) *remote.Backend { return New(opener) }

type usbDialer struct {
	opener EndpointOpener
}

// Dial parses "<bus>.<port>.<iface>" and opens the bulk endpoint for
// that interface, per spec's usb: URI scheme.
func (d usbDialer) Dial(ctx context.Context, target string) (transport.Transport, error) {
	bus, port, iface, err := parseAddress(target)
	if err != nil {
		return nil, err
	}
	ep, err := d.opener(bus, port, iface)
	if err != nil {
		return nil, fmt.Errorf("usbb: open endpoint %s: %w", target, err)
	}
	return usbx.New(ep), nil
}

func parseAddress(target string) (bus, port, iface int, err error) {
	parts := strings.SplitN(target, ".", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("usbb: malformed address %q, want <bus>.<port>.<iface>", target)
	}
	bus, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("usbb: bad bus %q: %w", parts[0], err)
	}
	port, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("usbb: bad port %q: %w", parts[1], err)
	}
	iface, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("usbb: bad interface %q: %w", parts[2], err)
	}
	return bus, port, iface, nil
}
