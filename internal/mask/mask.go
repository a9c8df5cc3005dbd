// Package mask implements the ChannelsMask bitset and the padded
// sample-size computation the buffer engine needs to demux a raw
// sample block into per-channel slices.
package mask

import "fmt"

// Mask is a bitset over a device's scan-enabled channels, indexed by
// scan_index.
type Mask struct {
	bits  []uint64
	nbits int
}

// New creates a Mask sized to hold nChannels bits, all initially
// disabled.
func New(nChannels int) *Mask {
	return &Mask{bits: make([]uint64, (nChannels+63)/64), nbits: nChannels}
}

// Enable marks scan index i as enabled for buffer I/O.
func (m *Mask) Enable(i int) {
	if i < 0 || i >= m.nbits {
		return
	}
	m.bits[i/64] |= 1 << uint(i%64)
}

// Disable clears scan index i.
func (m *Mask) Disable(i int) {
	if i < 0 || i >= m.nbits {
		return
	}
	m.bits[i/64] &^= 1 << uint(i%64)
}

// IsEnabled reports whether scan index i is enabled.
func (m *Mask) IsEnabled(i int) bool {
	if i < 0 || i >= m.nbits {
		return false
	}
	return m.bits[i/64]&(1<<uint(i%64)) != 0
}

// Count returns the number of enabled channels.
func (m *Mask) Count() int {
	n := 0
	for i := 0; i < m.nbits; i++ {
		if m.IsEnabled(i) {
			n++
		}
	}
	return n
}

// EnabledIndices returns the scan indices currently enabled, in
// ascending order — the order samples appear within a buffer frame.
func (m *Mask) EnabledIndices() []int {
	var out []int
	for i := 0; i < m.nbits; i++ {
		if m.IsEnabled(i) {
			out = append(out, i)
		}
	}
	return out
}

// String renders the mask as IIOD's hex wire format, most-significant
// word first, the grammar spec's OPEN command expects for its mask
// argument.
func (m *Mask) String() string {
	s := ""
	for i := len(m.bits) - 1; i >= 0; i-- {
		s += fmt.Sprintf("%016x", m.bits[i])
	}
	return s
}

// ChannelLayout is the per-channel storage width and offset within one
// sample frame, computed by ComputeLayout.
type ChannelLayout struct {
	ScanIndex   int
	StorageBits int
	ByteOffset  int // offset of this channel's sample within one frame
}

// ComputeLayout computes the per-channel byte offsets and the total
// frame size (with kernel alignment padding) for the enabled channels
// in m, given each channel's storage width in bits (indexed by scan
// index). Per spec §4.10, the kernel pads each channel's offset up to
// its own storage-size alignment boundary, then pads the whole frame
// up to the alignment of its widest channel.
func ComputeLayout(m *Mask, storageBitsByIndex map[int]int) (layouts []ChannelLayout, frameSize int) {
	indices := m.EnabledIndices()

	offset := 0
	maxAlign := 1
	for _, idx := range indices {
		storageBits := storageBitsByIndex[idx]
		storageBytes := storageBits / 8
		if storageBytes <= 0 {
			storageBytes = 1
		}
		if storageBytes > maxAlign {
			maxAlign = storageBytes
		}
		if rem := offset % storageBytes; rem != 0 {
			offset += storageBytes - rem
		}
		layouts = append(layouts, ChannelLayout{ScanIndex: idx, StorageBits: storageBits, ByteOffset: offset})
		offset += storageBytes
	}

	if rem := offset % maxAlign; rem != 0 {
		offset += maxAlign - rem
	}
	return layouts, offset
}

// Demux splits one raw buffer (a sequence of nSamples fixed-size
// frames) into per-channel byte slices, each nSamples*storageBytes
// long, using layouts and frameSize from ComputeLayout.
func Demux(raw []byte, layouts []ChannelLayout, frameSize, nSamples int) map[int][]byte {
	out := make(map[int][]byte, len(layouts))
	for _, l := range layouts {
		storageBytes := l.StorageBits / 8
		if storageBytes <= 0 {
			storageBytes = 1
		}
		buf := make([]byte, 0, nSamples*storageBytes)
		for s := 0; s < nSamples; s++ {
			start := s*frameSize + l.ByteOffset
			end := start + storageBytes
			if end > len(raw) {
				break
			}
			buf = append(buf, raw[start:end]...)
		}
		out[l.ScanIndex] = buf
	}
	return out
}
