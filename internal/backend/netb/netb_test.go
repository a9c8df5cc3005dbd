package netb

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openiio/goiio/internal/backend"
	"github.com/openiio/goiio/internal/transport"
	"github.com/openiio/goiio/internal/transport/loopbackx"
)

const sampleXML = `<?xml version="1.0"?><context name="test"><device id="iio:device0" name="ad7124-8"><attribute name="sampling_frequency" filename="sampling_frequency"/></device></context>` + "\n"

type pairDialer struct {
	tr transport.Transport
}

func (d pairDialer) Dial(ctx context.Context, target string) (transport.Transport, error) {
	return d.tr, nil
}

// fakeServer speaks just enough v0 IIOD to exercise OpenContext and
// ReadAttr: a version banner, then one PRINT reply and one READ reply.
func fakeServer(t *testing.T, server transport.Transport) {
	t.Helper()
	go func() {
		server.Write([]byte("0.24.g0123456\n"))
		r := bufio.NewReader(server)

		line, err := r.ReadString('\n')
		if err != nil || !strings.HasPrefix(line, "PRINT") {
			return
		}
		server.Write([]byte(sampleXML))

		line, err = r.ReadString('\n')
		if err != nil || !strings.HasPrefix(line, "READ") {
			return
		}
		val := "48000\n"
		server.Write([]byte("0 5\n"))
		server.Write([]byte(val[:5]))
	}()
}

func TestOpenContextAndReadAttr(t *testing.T) {
	client, server := loopbackx.Pair()
	fakeServer(t, server)

	b := NewWithDialer(pairDialer{tr: client})
	c, err := b.OpenContext(context.Background(), backend.OpenParams{}, "ip:127.0.0.1")
	require.NoError(t, err)
	require.Len(t, c.Graph.Devices, 1)
	require.Equal(t, "ad7124-8", c.Graph.Devices[0].Name)

	_, ok := c.Graph.FindAttr(0, "sampling_frequency")
	require.True(t, ok)

	val, err := b.ReadAttr(context.Background(), c, backend.AttrRef{DeviceIdx: 0, ChannelIdx: -1, Name: "sampling_frequency"})
	require.NoError(t, err)
	require.Equal(t, "48000", val)
}
