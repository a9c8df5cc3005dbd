// Package transport defines the cancellable byte-stream abstraction
// every IIOD backend (network, USB, serial) is built on, plus the
// cancellation primitive shared by all of them.
package transport

import (
	"context"
	"io"
	"time"
)

// Transport is a cancellable, deadline-aware byte stream connecting a
// client to one IIOD endpoint. Every backend that talks IIOD (C6)
// composes a Transport with a wire.Codec.
type Transport interface {
	io.Reader
	io.Writer
	io.Closer

	// SetReadDeadline and SetWriteDeadline bound the next Read/Write
	// call; a zero time.Time disables the deadline, mirroring
	// net.Conn's contract so tcpx can satisfy this with no adapter.
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error

	// Cancel unblocks any Read or Write currently in flight and any
	// future one, permanently, per spec's "sticky for the handle's
	// life" cancellation rule. It is always safe to call from another
	// goroutine and is idempotent.
	Cancel()
}

// Dialer opens a Transport for one URI-scheme-selected endpoint.
// Backend packages register a Dialer for their scheme; the network,
// USB, and serial backend constructors call Dial rather than
// embedding connection logic themselves.
type Dialer interface {
	Dial(ctx context.Context, target string) (Transport, error)
}
