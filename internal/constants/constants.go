package constants

import "time"

// Buffer and attribute defaults.
const (
	// DefaultBufferLength is the default number of samples per channel
	// requested when a caller does not specify a buffer length.
	DefaultBufferLength = 4096

	// DefaultAttrBufSize is a suggested scratch-buffer size for one
	// attribute value; no backend reads with it (reads are bounded by
	// MaxAttrSize).
	DefaultAttrBufSize = 1024

	// MaxAttrSize is the largest attribute value goiio will read before
	// treating the response as protocol-level garbage.
	MaxAttrSize = 1 << 20

	// DefaultBlockCount is the default number of in-flight blocks kept
	// primed against a buffer (the Stream prefetch depth).
	DefaultBlockCount = 4
)

// Network defaults.
const (
	// DefaultIIODPort is the IIOD network daemon's default TCP port.
	DefaultIIODPort = 30431

	// DefaultDialTimeout bounds how long CreateContext waits to
	// establish a network or serial transport before giving up.
	DefaultDialTimeout = 5 * time.Second

	// DefaultOpTimeout bounds a single attribute round trip or control
	// command when the caller supplies no explicit timeout.
	DefaultOpTimeout = 5 * time.Second
)

// Serial defaults, used by transport/serialx when a serial: URI omits them.
const (
	DefaultSerialBaud = 115200
)

// Reconnect/backoff constants. They are exported for callers; no
// backend reconnects on its own, and a dropped connection surfaces as
// an error on the next operation.
const (
	// ReconnectInitialDelay is the first retry delay after a dropped
	// connection.
	ReconnectInitialDelay = 100 * time.Millisecond

	// ReconnectMaxDelay caps the exponential backoff between retries.
	ReconnectMaxDelay = 5 * time.Second

	// ReconnectMaxRetries is a default retry ceiling for a caller's
	// reconnect loop.
	ReconnectMaxRetries = 5
)

// Cancellation polling.
const (
	// CancelPollInterval is a suggested bound for one wait between
	// checks of a wakeup descriptor. The transport package's Canceller
	// does not read it; its WaitReadable takes the timeout from the
	// caller.
	CancelPollInterval = 200 * time.Millisecond
)
