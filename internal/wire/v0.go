package wire

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Reply is the decoded result of a v0 text command: a status code and
// an optional data payload. A command that returns a bare negative
// number (no length field) carries no payload; Data is nil in that
// case, distinct from a command that reports length 0, where Data is
// a non-nil empty slice.
//
// Preserved ambiguity (do not "fix"): a READ_ATTR reply of "0 0\n"
// (status 0, length 0) decodes to Data == []byte{} and a reply
// consisting of nothing but a single "0\n" decodes to Data == nil;
// both mean the same thing, matching the server's own behavior of
// conflating "attribute is the empty string" with "no data follows."
// Downstream attribute accessors must treat an empty or nil Data as
// the empty string, not as an error.
type Reply struct {
	Status int32
	Data   []byte
}

// SendLine writes a v0 command line, terminated by a single LF, per
// the wire grammar's "<command> <arg>*\n" rule.
func (c *Codec) SendLine(cmd string) error {
	_, err := io.WriteString(c.rw, cmd+"\n")
	return err
}

// SendLineWithPayload writes a command line immediately followed by
// length-prefixed raw bytes, used by WRITE_ATTR and WRITEBUF.
func (c *Codec) SendLineWithPayload(cmd string, payload []byte) error {
	if err := c.SendLine(cmd); err != nil {
		return err
	}
	_, err := c.rw.Write(payload)
	return err
}

// ReadReply reads and decodes one v0 status line, per spec's v0 grammar:
//
//	a line with a single numeric field: a bare status code, no payload
//	  (negative: error; non-negative: success with no data)
//	a line with a single non-numeric field: a literal one-line data
//	  reply (e.g. VERSION's free-text banner)
//	a line with exactly two fields "<status> <length>": on status==0,
//	  <length> raw bytes follow and are read in full; on status!=0 the
//	  bytes (if any) are the error message text
//	a line beginning "<?xml": the start of a context dump; lines are
//	  read until "</context>" and returned verbatim as Data, Status 0
func (c *Codec) ReadReply() (Reply, error) {
	line, err := c.br.ReadString('\n')
	if err != nil {
		return Reply{}, fmt.Errorf("wire: read reply: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")

	if strings.HasPrefix(line, "<?xml") {
		var sb strings.Builder
		sb.WriteString(line)
		sb.WriteByte('\n')
		for !strings.Contains(line, "</context>") {
			l, err := c.br.ReadString('\n')
			if err != nil {
				return Reply{}, fmt.Errorf("wire: read xml context: %w", err)
			}
			sb.WriteString(l)
			if strings.Contains(l, "</context>") {
				break
			}
		}
		return Reply{Status: 0, Data: []byte(sb.String())}, nil
	}

	fields := strings.Fields(line)
	switch len(fields) {
	case 0:
		return Reply{}, fmt.Errorf("wire: empty reply line")

	case 1:
		if status, ok := parseInt32(fields[0]); ok {
			return Reply{Status: status, Data: nil}, nil
		}
		// Non-numeric single-field reply: treat the whole line as
		// literal data (e.g. a plain-text VERSION banner).
		return Reply{Status: 0, Data: []byte(fields[0])}, nil

	default:
		status, ok := parseInt32(fields[0])
		if !ok {
			// Not the "<status> <length>" shape after all; surface the
			// full line as data rather than erroring, matching
			// GoSDR's permissive fallback.
			return Reply{Status: 0, Data: []byte(line)}, nil
		}
		length, ok := parseInt32(fields[1])
		if !ok || length < 0 {
			return Reply{}, fmt.Errorf("wire: malformed length field %q", fields[1])
		}

		buf := make([]byte, length)
		if length > 0 {
			if _, err := io.ReadFull(c.br, buf); err != nil {
				return Reply{}, fmt.Errorf("wire: read payload: %w", err)
			}
		}
		if status != 0 {
			msg := strings.TrimSpace(string(buf))
			if msg == "" {
				msg = fmt.Sprintf("status %d", status)
			}
			return Reply{Status: status, Data: buf}, fmt.Errorf("iiod: %s", msg)
		}
		return Reply{Status: status, Data: buf}, nil
	}
}

func parseInt32(s string) (int32, bool) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(n), true
}

// Do sends a command line and returns its decoded reply in one call,
// the common case for attribute and control commands that carry no
// outbound payload.
func (c *Codec) Do(cmd string) (Reply, error) {
	if err := c.SendLine(cmd); err != nil {
		return Reply{}, err
	}
	return c.ReadReply()
}

// DoWithPayload sends a command line followed by payload bytes and
// returns its decoded reply, used for WRITE_ATTR/WRITEBUF.
func (c *Codec) DoWithPayload(cmd string, payload []byte) (Reply, error) {
	if err := c.SendLineWithPayload(cmd, payload); err != nil {
		return Reply{}, err
	}
	return c.ReadReply()
}
