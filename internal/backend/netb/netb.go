// Package netb implements the ip: backend: an IIOD client over TCP
// speaking either wire dialect, selected once at connect time.
package netb

import (
	"context"

	"github.com/openiio/goiio/internal/backend"
	"github.com/openiio/goiio/internal/backend/remote"
	"github.com/openiio/goiio/internal/transport"
	"github.com/openiio/goiio/internal/transport/tcpx"
)

func init() {
	backend.Register("ip", func() backend.Backend { return New() })
}

// New constructs an ip: Backend dialing real TCP sockets.
func New() *remote.Backend {
	return &remote.Backend{
		Scheme: "ip",
		Dialer: tcpDialer{},
		Caps:   backend.CapTrigger | backend.CapRegisterAccess | backend.CapEvents | backend.CapBuffer,
	}
}

// NewWithDialer constructs an ip: Backend using a caller-supplied
// Dialer, the hook tests use to substitute a loopback transport.
func NewWithDialer(d transport.Dialer) *remote.Backend {
	return &remote.Backend{Scheme: "ip", Dialer: d, Caps: backend.CapTrigger | backend.CapRegisterAccess | backend.CapEvents | backend.CapBuffer}
}

type tcpDialer struct{}

func (tcpDialer) Dial(ctx context.Context, target string) (transport.Transport, error) {
	return tcpx.Dial(ctx, target)
}
