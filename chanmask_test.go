package iio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChannelsMaskEnableDisable(t *testing.T) {
	ctx := newTestContext(t, "chanmask")
	dev, err := ctx.FindDevice("iio:device0")
	require.NoError(t, err)
	ch0, err := dev.FindChannel("voltage0", false)
	require.NoError(t, err)
	ch1, err := dev.FindChannel("voltage1", false)
	require.NoError(t, err)

	m := dev.NewChannelsMask()
	require.Equal(t, 0, m.Count())

	m.Enable(ch0)
	require.True(t, m.IsEnabled(ch0))
	require.False(t, m.IsEnabled(ch1))
	require.Equal(t, 1, m.Count())

	m.Enable(ch1)
	require.Equal(t, 2, m.Count())

	m.Disable(ch0)
	require.False(t, m.IsEnabled(ch0))
	require.Equal(t, 1, m.Count())
}

func TestChannelsMaskStringIsHex(t *testing.T) {
	ctx := newTestContext(t, "chanmask-hex")
	dev, err := ctx.FindDevice("iio:device0")
	require.NoError(t, err)
	ch0, err := dev.FindChannel("voltage0", false)
	require.NoError(t, err)

	m := dev.NewChannelsMask()
	m.Enable(ch0)
	require.Equal(t, "0000000000000001", m.String())
}
