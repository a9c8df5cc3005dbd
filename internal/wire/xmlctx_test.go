package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleContext = `<?xml version="1.0"?>
<context name="local" description="test">
  <device id="iio:device0" name="ad7124-8">
    <channel id="voltage0" type="input" name="ch0">
      <scan-element index="0" format="le:s24/32&gt;&gt;0"/>
      <attribute name="raw" filename="in_voltage0_raw"/>
    </channel>
    <attribute name="sampling_frequency" filename="sampling_frequency"/>
    <debug>
      <attribute name="direct_reg_access" filename="direct_reg_access"/>
    </debug>
  </device>
</context>
`

func TestParseXMLContext(t *testing.T) {
	ctx, err := ParseXMLContext([]byte(sampleContext))
	require.NoError(t, err)
	require.Equal(t, "local", ctx.Name)
	require.Len(t, ctx.Devices, 1)

	dev := ctx.Devices[0]
	require.Equal(t, "iio:device0", dev.ID)
	require.Equal(t, "ad7124-8", dev.Name)
	require.Len(t, dev.Channels, 1)
	require.Len(t, dev.Attributes, 1)
	require.Len(t, dev.DebugAttrs, 1)

	ch := dev.Channels[0]
	require.Equal(t, "voltage0", ch.ID)
	require.Len(t, ch.Attributes, 1)
	require.Equal(t, "in_voltage0_raw", ch.Attributes[0].Filename)
}
