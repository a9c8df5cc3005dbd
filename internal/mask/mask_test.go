package mask

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnableDisableCount(t *testing.T) {
	m := New(130)
	m.Enable(0)
	m.Enable(63)
	m.Enable(64)
	m.Enable(129)
	require.Equal(t, 4, m.Count())
	require.True(t, m.IsEnabled(64))
	m.Disable(64)
	require.False(t, m.IsEnabled(64))
	require.Equal(t, 3, m.Count())
}

func TestEnabledIndicesOrder(t *testing.T) {
	m := New(8)
	m.Enable(5)
	m.Enable(1)
	m.Enable(3)
	require.Equal(t, []int{1, 3, 5}, m.EnabledIndices())
}

func TestOutOfRangeIsNoOp(t *testing.T) {
	m := New(4)
	m.Enable(100)
	require.Equal(t, 0, m.Count())
	require.False(t, m.IsEnabled(-1))
}

func TestComputeLayoutAlignsAndPads(t *testing.T) {
	m := New(3)
	m.Enable(0)
	m.Enable(1)
	m.Enable(2)

	// channel 0: 8-bit (1 byte), channel 1: 32-bit (4 bytes), channel 2: 16-bit (2 bytes)
	storage := map[int]int{0: 8, 1: 32, 2: 16}
	layouts, frameSize := ComputeLayout(m, storage)

	require.Len(t, layouts, 3)
	require.Equal(t, 0, layouts[0].ByteOffset) // ch0 at 0
	require.Equal(t, 4, layouts[1].ByteOffset) // ch1 padded up to 4-byte alignment
	require.Equal(t, 8, layouts[2].ByteOffset) // ch2 at 8, 2-byte aligned already

	// frame must be padded to the widest channel's alignment (4 bytes):
	// offset after ch2 is 10, padded up to 12
	require.Equal(t, 12, frameSize)
}

func TestDemuxSplitsFrames(t *testing.T) {
	m := New(2)
	m.Enable(0)
	m.Enable(1)
	storage := map[int]int{0: 16, 1: 16}
	layouts, frameSize := ComputeLayout(m, storage)
	require.Equal(t, 4, frameSize)

	// 2 samples, frame = [ch0_lo, ch0_hi, ch1_lo, ch1_hi]
	raw := []byte{
		0x01, 0x00, 0x02, 0x00, // sample 0: ch0=1, ch1=2
		0x03, 0x00, 0x04, 0x00, // sample 1: ch0=3, ch1=4
	}
	out := Demux(raw, layouts, frameSize, 2)
	require.Equal(t, []byte{0x01, 0x00, 0x03, 0x00}, out[0])
	require.Equal(t, []byte{0x02, 0x00, 0x04, 0x00}, out[1])
}

func TestMaskStringHexFormat(t *testing.T) {
	m := New(128)
	m.Enable(0)
	s := m.String()
	require.Len(t, s, 32) // two 64-bit words, 16 hex chars each
}
