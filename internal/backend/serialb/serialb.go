// Package serialb implements the serial: backend: an IIOD client over
// a POSIX serial line.
package serialb

import (
	"context"

	"github.com/openiio/goiio/internal/backend"
	"github.com/openiio/goiio/internal/backend/remote"
	"github.com/openiio/goiio/internal/transport"
	"github.com/openiio/goiio/internal/transport/serialx"
)

func init() {
	backend.Register("serial", func() backend.Backend { return New() })
}

// New constructs a serial: Backend dialing a real tty device.
func New() *remote.Backend {
	return &remote.Backend{
		Scheme: "serial",
		Dialer: serialDialer{},
		Caps:   backend.CapBuffer | backend.CapTrigger | backend.CapRegisterAccess,
	}
}

// NewWithDialer substitutes a caller-supplied Dialer, used by tests.
func NewWithDialer(d transport.Dialer) *remote.Backend {
	return &remote.Backend{Scheme: "serial", Dialer: d, Caps: backend.CapBuffer | backend.CapTrigger | backend.CapRegisterAccess}
}

type serialDialer struct{}

func (serialDialer) Dial(ctx context.Context, target string) (transport.Transport, error) {
	return serialx.Dial(ctx, target)
}
