package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"unsafe"
)

// Opcode identifies a v1 binary-dialect request or response frame.
type Opcode uint8

const (
	OpReadAttr   Opcode = 1
	OpWriteAttr  Opcode = 2
	OpOpenBuffer Opcode = 3
	OpReadBuffer Opcode = 4
	OpWriteBuffer Opcode = 5
	OpCloseBuffer Opcode = 6
	OpGetEvents   Opcode = 7
	OpPrint       Opcode = 8
	OpTimeout     Opcode = 9
)

// frameHeader is the 16-byte little-endian header prefixing every v1
// request and response, mirroring the teacher's uapi struct idiom: a
// fixed-layout struct with a compile-time size check and
// field-by-field binary.LittleEndian encode/decode rather than
// unsafe-cast marshaling, since this header crosses a network
// boundary (unlike the teacher's mmap'd kernel struct, which shares
// process memory and can afford an unsafe cast).
type frameHeader struct {
	Opcode     uint8
	DevIndex   uint8
	ClientID   uint16
	PayloadLen uint32
	Code       int32
	Reserved   uint32
}

const frameHeaderSize = 16

var _ [frameHeaderSize]byte = [unsafe.Sizeof(frameHeader{})]byte{}

func marshalFrameHeader(h frameHeader) []byte {
	buf := make([]byte, frameHeaderSize)
	buf[0] = h.Opcode
	buf[1] = h.DevIndex
	binary.LittleEndian.PutUint16(buf[2:4], h.ClientID)
	binary.LittleEndian.PutUint32(buf[4:8], h.PayloadLen)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(h.Code))
	binary.LittleEndian.PutUint32(buf[12:16], h.Reserved)
	return buf
}

func unmarshalFrameHeader(buf []byte) frameHeader {
	_ = buf[frameHeaderSize-1]
	return frameHeader{
		Opcode:     buf[0],
		DevIndex:   buf[1],
		ClientID:   binary.LittleEndian.Uint16(buf[2:4]),
		PayloadLen: binary.LittleEndian.Uint32(buf[4:8]),
		Code:       int32(binary.LittleEndian.Uint32(buf[8:12])),
		Reserved:   binary.LittleEndian.Uint32(buf[12:16]),
	}
}

// Frame is a decoded v1 request or response.
type Frame struct {
	Opcode   Opcode
	DevIndex uint8
	ClientID uint16
	Code     int32 // negative errno on response error, 0 on success
	Payload  []byte
}

// SendFrame writes a v1 request frame: a 16-byte header followed by
// its payload.
func (c *Codec) SendFrame(f Frame) error {
	h := frameHeader{
		Opcode:     uint8(f.Opcode),
		DevIndex:   f.DevIndex,
		ClientID:   f.ClientID,
		PayloadLen: uint32(len(f.Payload)),
		Code:       f.Code,
	}
	if _, err := c.rw.Write(marshalFrameHeader(h)); err != nil {
		return fmt.Errorf("wire: write frame header: %w", err)
	}
	if len(f.Payload) > 0 {
		if _, err := c.rw.Write(f.Payload); err != nil {
			return fmt.Errorf("wire: write frame payload: %w", err)
		}
	}
	return nil
}

// ReadFrame reads and decodes one v1 frame. A negative Code indicates
// the request failed with that negated errno; the payload, if any, is
// still read in full so the stream stays in sync (mirroring the
// teacher's submit-then-check-negative-result idiom, generalized from
// a single int32 result to a full response frame).
func (c *Codec) ReadFrame() (Frame, error) {
	hdr := make([]byte, frameHeaderSize)
	if _, err := io.ReadFull(c.br, hdr); err != nil {
		return Frame{}, fmt.Errorf("wire: read frame header: %w", err)
	}
	h := unmarshalFrameHeader(hdr)

	var payload []byte
	if h.PayloadLen > 0 {
		payload = make([]byte, h.PayloadLen)
		if _, err := io.ReadFull(c.br, payload); err != nil {
			return Frame{}, fmt.Errorf("wire: read frame payload: %w", err)
		}
	}

	f := Frame{
		Opcode:   Opcode(h.Opcode),
		DevIndex: h.DevIndex,
		ClientID: h.ClientID,
		Code:     h.Code,
		Payload:  payload,
	}
	if h.Code < 0 {
		return f, fmt.Errorf("iiod: errno %d", -h.Code)
	}
	return f, nil
}

// DoFrame sends a request frame and returns its decoded response,
// the v1 analogue of Codec.Do.
func (c *Codec) DoFrame(f Frame) (Frame, error) {
	if err := c.SendFrame(f); err != nil {
		return Frame{}, err
	}
	return c.ReadFrame()
}
