package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadReplyBareStatus(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("-19\n")
	c := NewCodec(&buf, ProtocolV0)

	reply, err := c.ReadReply()
	require.NoError(t, err)
	require.Equal(t, int32(-19), reply.Status)
	require.Nil(t, reply.Data)
}

func TestReadReplyStatusLength(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("0 5\nhello")
	c := NewCodec(&buf, ProtocolV0)

	reply, err := c.ReadReply()
	require.NoError(t, err)
	require.Equal(t, int32(0), reply.Status)
	require.Equal(t, []byte("hello"), reply.Data)
}

func TestReadReplyZeroLengthIsEmptyNotNil(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("0 0\n")
	c := NewCodec(&buf, ProtocolV0)

	reply, err := c.ReadReply()
	require.NoError(t, err)
	require.Equal(t, int32(0), reply.Status)
	require.NotNil(t, reply.Data)
	require.Len(t, reply.Data, 0)
}

func TestReadReplyErrorStatusCarriesMessage(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("-2 9\nnot found")
	c := NewCodec(&buf, ProtocolV0)

	reply, err := c.ReadReply()
	require.Error(t, err)
	require.Equal(t, int32(-2), reply.Status)
	require.Contains(t, err.Error(), "not found")
}

func TestReadReplyXMLSniff(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("<?xml version=\"1.0\"?>\n<context>\n<device id=\"iio:device0\"/>\n</context>\n")
	c := NewCodec(&buf, ProtocolV0)

	reply, err := c.ReadReply()
	require.NoError(t, err)
	require.Contains(t, string(reply.Data), "</context>")
}

func TestNegotiateV0Banner(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("0.24.git1234\n")
	codec, v, err := Negotiate(&buf)
	require.NoError(t, err)
	require.Equal(t, ProtocolV0, codec.Protocol())
	require.Equal(t, 0, v.Major)
	require.Equal(t, 24, v.Minor)
}

func TestNegotiateV1Banner(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("0.25.git5678\n")
	codec, v, err := Negotiate(&buf)
	require.NoError(t, err)
	require.Equal(t, ProtocolV1, codec.Protocol())
	require.True(t, v.SupportsV1())
}
