// Package loopbackx provides an in-process Transport pair, used by
// backend/netb's tests so they can drive a real wire.Codec without a
// real socket or daemon.
package loopbackx

import (
	"net"
	"time"
)

// Transport wraps one end of an in-process net.Pipe connection.
type Transport struct {
	conn net.Conn
}

// Pair returns two connected Transports, client and server ends.
func Pair() (client, server *Transport) {
	c, s := net.Pipe()
	return &Transport{conn: c}, &Transport{conn: s}
}

func (t *Transport) Read(p []byte) (int, error)  { return t.conn.Read(p) }
func (t *Transport) Write(p []byte) (int, error) { return t.conn.Write(p) }
func (t *Transport) Close() error                { return t.conn.Close() }

func (t *Transport) SetReadDeadline(tm time.Time) error  { return t.conn.SetReadDeadline(tm) }
func (t *Transport) SetWriteDeadline(tm time.Time) error { return t.conn.SetWriteDeadline(tm) }

// Cancel forces an elapsed deadline and closes the pipe, mirroring
// tcpx's Cancel for the same reason: net.Conn's deadline is already a
// sufficient wakeup primitive, no eventfd needed.
func (t *Transport) Cancel() {
	past := time.Now().Add(-time.Second)
	_ = t.conn.SetDeadline(past)
	_ = t.conn.Close()
}
