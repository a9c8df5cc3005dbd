// Package serialx implements the Transport interface over a POSIX
// serial line, for the serial: URI scheme. It is grounded on
// Daedaluz-goserial, the pack's only termios/RS485 library: goiio
// does not reimplement ioctl plumbing, it configures a
// *goserial.Port the way port_linux.go's own callers do.
package serialx

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	goserial "github.com/daedaluz/goserial"

	"github.com/openiio/goiio/internal/constants"
)

// Transport wraps a *goserial.Port configured for 8N1 at the
// requested baud rate, with a bounded read timeout standing in for
// Go's usual deadline-based cancellation (goserial's ReadTimeout
// option is the transport's only wakeup primitive on a raw tty fd).
type Transport struct {
	port     *goserial.Port
	baud     int
	deadline time.Time
}

// Dial opens target (a device path such as "/dev/ttyUSB0", optionally
// suffixed "@<baud>") and configures raw 8N1 mode at the requested
// baud rate, defaulting to constants.DefaultSerialBaud.
func Dial(ctx context.Context, target string) (*Transport, error) {
	path, baud := splitBaud(target)

	opts := goserial.NewOptions().SetReadTimeout(constants.DefaultOpTimeout)
	port, err := goserial.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("serialx: open %s: %w", path, err)
	}

	if err := port.MakeRaw(); err != nil {
		port.Close()
		return nil, fmt.Errorf("serialx: set raw mode: %w", err)
	}

	attrs, err := port.GetAttr()
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("serialx: get attrs: %w", err)
	}
	if err := setBaud(attrs, baud); err != nil {
		port.Close()
		return nil, err
	}
	if err := port.SetAttr(goserial.TCSANOW, attrs); err != nil {
		port.Close()
		return nil, fmt.Errorf("serialx: set attrs: %w", err)
	}

	return &Transport{port: port, baud: baud}, nil
}

func splitBaud(target string) (path string, baud int) {
	baud = constants.DefaultSerialBaud
	if idx := strings.LastIndex(target, "@"); idx >= 0 {
		if n, err := strconv.Atoi(target[idx+1:]); err == nil {
			baud = n
			return target[:idx], baud
		}
	}
	return target, baud
}

func (t *Transport) Read(p []byte) (int, error) {
	if !t.deadline.IsZero() && time.Now().After(t.deadline) {
		return 0, fmt.Errorf("serialx: read deadline already elapsed")
	}
	if !t.deadline.IsZero() {
		t.port.SetReadTimeout(time.Until(t.deadline))
	}
	return t.port.Read(p)
}

func (t *Transport) Write(p []byte) (int, error) { return t.port.Write(p) }
func (t *Transport) Close() error                { return t.port.Close() }

func (t *Transport) SetReadDeadline(tm time.Time) error {
	t.deadline = tm
	return nil
}

// SetWriteDeadline is a no-op: writes to a serial line do not block
// on flow-controlled peers the way WRITEBUF's sample payload could in
// principle; goserial exposes no write timeout.
func (t *Transport) SetWriteDeadline(tm time.Time) error { return nil }

// Cancel sets an already-elapsed read deadline and closes the port.
// There is no separate wakeup fd here: goserial's ReadTimeout already
// bounds any blocked Read, so Cancel only needs to make the next
// deadline check fail and tear down the fd.
func (t *Transport) Cancel() {
	t.deadline = time.Now().Add(-time.Second)
	_ = t.port.Close()
}

func setBaud(attrs *goserial.Termios, baud int) error {
	speed, ok := baudToSpeed(baud)
	if !ok {
		return fmt.Errorf("serialx: unsupported baud rate %d", baud)
	}
	attrs.Cflag &^= goserial.CBAUD
	attrs.Cflag |= speed
	return nil
}

func baudToSpeed(baud int) (goserial.CFlag, bool) {
	switch baud {
	case 9600:
		return goserial.B9600, true
	case 19200:
		return goserial.B19200, true
	case 38400:
		return goserial.B38400, true
	case 57600:
		return goserial.B57600, true
	case 115200:
		return goserial.B115200, true
	case 230400:
		return goserial.B230400, true
	default:
		return 0, false
	}
}
