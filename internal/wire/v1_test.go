package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	c := NewCodec(&buf, ProtocolV1)

	err := c.SendFrame(Frame{
		Opcode:   OpReadAttr,
		DevIndex: 3,
		ClientID: 7,
		Payload:  []byte("in_voltage0_raw"),
	})
	require.NoError(t, err)

	f, err := c.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, OpReadAttr, f.Opcode)
	require.Equal(t, uint8(3), f.DevIndex)
	require.Equal(t, uint16(7), f.ClientID)
	require.Equal(t, []byte("in_voltage0_raw"), f.Payload)
}

func TestFrameNegativeCodeIsError(t *testing.T) {
	var buf bytes.Buffer
	c := NewCodec(&buf, ProtocolV1)

	require.NoError(t, c.SendFrame(Frame{Opcode: OpReadAttr, Code: -2}))
	_, err := c.ReadFrame()
	require.Error(t, err)
}

func TestFrameHeaderSizeIs16Bytes(t *testing.T) {
	buf := marshalFrameHeader(frameHeader{Opcode: 1, DevIndex: 2, ClientID: 3, PayloadLen: 4, Code: -5})
	require.Len(t, buf, frameHeaderSize)
	got := unmarshalFrameHeader(buf)
	require.Equal(t, uint8(1), got.Opcode)
	require.Equal(t, uint8(2), got.DevIndex)
	require.Equal(t, uint16(3), got.ClientID)
	require.Equal(t, uint32(4), got.PayloadLen)
	require.Equal(t, int32(-5), got.Code)
}
