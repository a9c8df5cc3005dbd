// Package tcpx implements the network Transport over net.Conn, for
// the ip: URI scheme.
package tcpx

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/openiio/goiio/internal/constants"
)

// Transport wraps a net.Conn. Unlike the raw-fd transports, it needs
// no eventfd/epoll Canceller: a net.Conn's blocking Read/Write already
// unblocks the instant a deadline in the past is set, so Cancel simply
// sets one and closes the socket, which is both simpler and cheaper
// than this package's serial/USB siblings.
type Transport struct {
	conn net.Conn
	mu   sync.Mutex
	done bool
}

// Dial connects to target ("host:port", defaulting the port to
// constants.DefaultIIODPort when omitted) within ctx's deadline or
// constants.DefaultDialTimeout, whichever is tighter.
func Dial(ctx context.Context, target string) (*Transport, error) {
	if _, _, err := net.SplitHostPort(target); err != nil {
		target = fmt.Sprintf("%s:%d", target, constants.DefaultIIODPort)
	}

	d := net.Dialer{Timeout: constants.DefaultDialTimeout}
	conn, err := d.DialContext(ctx, "tcp", target)
	if err != nil {
		return nil, fmt.Errorf("tcpx: dial %s: %w", target, err)
	}
	return &Transport{conn: conn}, nil
}

func (t *Transport) Read(p []byte) (int, error)  { return t.conn.Read(p) }
func (t *Transport) Write(p []byte) (int, error) { return t.conn.Write(p) }

func (t *Transport) SetReadDeadline(tm time.Time) error  { return t.conn.SetReadDeadline(tm) }
func (t *Transport) SetWriteDeadline(tm time.Time) error { return t.conn.SetWriteDeadline(tm) }

// Cancel unblocks any in-flight or future Read/Write permanently, by
// forcing an already-elapsed deadline and then closing the socket.
func (t *Transport) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	past := time.Now().Add(-time.Second)
	_ = t.conn.SetDeadline(past)
	_ = t.conn.Close()
}

func (t *Transport) Close() error {
	t.mu.Lock()
	t.done = true
	t.mu.Unlock()
	return t.conn.Close()
}
