package iio

import "github.com/openiio/goiio/internal/mask"

// ChannelsMask is a bitset over a device's scan-enabled channels
// (indexed by Channel.ScanIndex), the application's *request* for
// which channels to enable in a buffer (spec §3). A Buffer exposes
// only this requested mask (Buffer.RequestedMask); the set of channels
// the kernel actually accepted is not read back.
type ChannelsMask struct {
	inner *mask.Mask
}

// Enable marks ch as requested for buffered I/O.
func (m *ChannelsMask) Enable(ch *Channel) {
	m.inner.Enable(ch.ScanIndex())
}

// EnableIndex marks scan index i as requested directly, for callers
// that already have a raw scan index (e.g. from an Event).
func (m *ChannelsMask) EnableIndex(i int) { m.inner.Enable(i) }

// Disable clears ch from the request set.
func (m *ChannelsMask) Disable(ch *Channel) {
	m.inner.Disable(ch.ScanIndex())
}

// IsEnabled reports whether ch is currently requested.
func (m *ChannelsMask) IsEnabled(ch *Channel) bool {
	return m.inner.IsEnabled(ch.ScanIndex())
}

// Count returns the number of enabled channels.
func (m *ChannelsMask) Count() int { return m.inner.Count() }

// String renders the mask in IIOD's hex wire format.
func (m *ChannelsMask) String() string { return m.inner.String() }
