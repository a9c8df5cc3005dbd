package wire

import "fmt"

// The following builders produce the IIOD v0 text command-line
// grammar: one line per request, optionally followed by a raw
// payload of the announced length.

// Print requests the XML context dump.
func Print() string { return "PRINT" }

// VersionCmd requests the server's protocol version as a text line.
func VersionCmd() string { return "VERSION" }

// ListDevices requests the compact device listing (fallback when the
// server predates structured attribute indices).
func ListDevices() string { return "LIST_DEVICES" }

// ReadAttr builds a device, channel, or debug attribute read command.
// channel and attr may be empty to address a device-level attribute.
func ReadAttr(device, channel, attr string) string {
	switch {
	case channel != "":
		return fmt.Sprintf("READ %s %s %s", device, channel, attr)
	case attr != "":
		return fmt.Sprintf("READ %s %s", device, attr)
	default:
		return fmt.Sprintf("READ %s", device)
	}
}

// WriteAttr builds a device, channel, or debug attribute write
// command. The caller must follow with the value as the payload via
// DoWithPayload.
func WriteAttr(device, channel, attr string, valueLen int) string {
	switch {
	case channel != "":
		return fmt.Sprintf("WRITE %s %s %s %d", device, channel, attr, valueLen)
	case attr != "":
		return fmt.Sprintf("WRITE %s %s %d", device, attr, valueLen)
	default:
		return fmt.Sprintf("WRITE %s %d", device, valueLen)
	}
}

// Open builds an OPEN command requesting a buffer of the given
// channel mask and sample count: "OPEN <dev> <mask> <samples>
// <cyclic>".
func Open(device, mask string, samplesCount int, cyclic bool) string {
	c := 0
	if cyclic {
		c = 1
	}
	return fmt.Sprintf("OPEN %s %s %d %d", device, mask, samplesCount, c)
}

// GetTrig builds a GETTRIG command, asking which trigger (if any)
// drives device's sampling clock.
func GetTrig(device string) string { return fmt.Sprintf("GETTRIG %s", device) }

// SetTrig builds a SETTRIG command linking device to trigger, or
// clearing the link if trigger is empty.
func SetTrig(device, trigger string) string {
	return fmt.Sprintf("SETTRIG %s %s", device, trigger)
}

// ReadBuf builds a READBUF command requesting up to byteCount bytes
// from an open buffer.
func ReadBuf(device string, byteCount int) string {
	return fmt.Sprintf("READBUF %s %d", device, byteCount)
}

// WriteBuf builds a WRITEBUF command header; the caller follows with
// the raw sample payload via DoWithPayload.
func WriteBuf(device string, byteCount int) string {
	return fmt.Sprintf("WRITEBUF %s %d", device, byteCount)
}

// CloseCmd builds a CLOSE command for an open buffer.
func CloseCmd(device string) string {
	return fmt.Sprintf("CLOSE %s", device)
}

// SetTimeout builds a TIMEOUT command, in milliseconds, bounding how
// long the server waits on subsequent requests from this client.
func SetTimeout(ms int) string {
	return fmt.Sprintf("TIMEOUT %d", ms)
}

// SetBuffersCount builds a "SET <dev> BUFFERS_COUNT <n>" command,
// resizing a device's kernel buffer ring.
func SetBuffersCount(device string, count int) string {
	return fmt.Sprintf("SET %s BUFFERS_COUNT %d", device, count)
}
