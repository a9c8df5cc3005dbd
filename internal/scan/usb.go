package scan

import (
	"context"
	"strings"

	"github.com/openiio/goiio/internal/logging"
)

// USBEnumerator lists IIOD-speaking USB devices matching a VID:PID
// filter ("*" for "any"). Real USB bus enumeration is an external
// collaborator per spec §1 ("USB transport packetization... out of
// scope"); production callers supply an implementation backed by
// their libusb binding of choice via SetUSBEnumerator, mirroring
// backend/usbb's EndpointOpener hook.
type USBEnumerator func(ctx context.Context, vidPidFilter string) ([]Result, error)

var usbEnumerator USBEnumerator

// SetUSBEnumerator installs the production USB discovery hook.
func SetUSBEnumerator(e USBEnumerator) { usbEnumerator = e }

func init() {
	Register("usb", DiscovererFunc(discoverUSB))
}

func discoverUSB(ctx context.Context, arg string) ([]Result, error) {
	if arg == "" {
		arg = "*"
	}
	if usbEnumerator == nil {
		logging.Default().Debug("scan: usb discovery requested but no USBEnumerator configured", "filter", arg)
		return nil, nil
	}
	if !strings.Contains(arg, ":") && arg != "*" {
		return nil, nil
	}
	return usbEnumerator(ctx, arg)
}
