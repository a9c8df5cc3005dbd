package iio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeviceChannelsAndAttributes(t *testing.T) {
	ctx := newTestContext(t, "device-channels")
	dev, err := ctx.FindDevice("iio:device0")
	require.NoError(t, err)

	require.Equal(t, 3, dev.ChannelCount())
	ch, err := dev.FindChannel("voltage0", false)
	require.NoError(t, err)
	require.Equal(t, 0, ch.ScanIndex())
	require.True(t, ch.IsScanElement())
	require.False(t, ch.IsOutput())

	attrs := dev.Attributes()
	require.Len(t, attrs, 1)
	require.Equal(t, "sampling_frequency", attrs[0].Name())

	_, err = dev.FindChannel("nope", false)
	require.Error(t, err)
	require.True(t, IsKind(err, KindNotFound))
}

func TestChannelFormatAndAttributes(t *testing.T) {
	ctx := newTestContext(t, "channel-format")
	dev, err := ctx.FindDevice("iio:device0")
	require.NoError(t, err)
	ch, err := dev.FindChannel("voltage0", false)
	require.NoError(t, err)

	format := ch.Format()
	require.Equal(t, 24, format.Bits)
	require.Equal(t, 32, format.Storage)

	attr, err := ch.FindAttr("raw")
	require.NoError(t, err)
	require.Equal(t, "raw", attr.Name())

	_, err = ch.FindAttr("missing")
	require.Error(t, err)
}

func TestDeviceTriggerLifecycle(t *testing.T) {
	ctx := newTestContext(t, "device-trigger")
	dev, err := ctx.FindDevice("iio:device0")
	require.NoError(t, err)
	trig, err := ctx.FindDevice("trigger0")
	require.NoError(t, err)

	_, ok, err := dev.GetTrigger()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, dev.SetTrigger(trig))

	got, ok, err := dev.GetTrigger()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, trig.ID(), got.ID())

	require.NoError(t, dev.SetTrigger(nil))
	_, ok, err = dev.GetTrigger()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTriggerDeviceRejectsGetSetTrigger(t *testing.T) {
	ctx := newTestContext(t, "trigger-self")
	trig, err := ctx.FindDevice("trigger0")
	require.NoError(t, err)

	_, _, err = trig.GetTrigger()
	require.Error(t, err)
	require.True(t, IsKind(err, KindBadState))

	err = trig.SetTrigger(nil)
	require.Error(t, err)
	require.True(t, IsKind(err, KindBadState))
}

func TestDeviceRegisterAccess(t *testing.T) {
	ctx := newTestContext(t, "device-regs")
	dev, err := ctx.FindDevice("iio:device0")
	require.NoError(t, err)

	require.NoError(t, dev.RegWrite(0x10, 0x42))
	v, err := dev.RegRead(0x10)
	require.NoError(t, err)
	require.Equal(t, uint32(0x42), v)
}

func TestDeviceInfoSnapshot(t *testing.T) {
	ctx := newTestContext(t, "device-info")
	dev, err := ctx.FindDevice("iio:device0")
	require.NoError(t, err)

	info := dev.Info()
	require.Equal(t, "iio:device0", info.ID)
	require.Len(t, info.Channels, 3)
	require.Equal(t, []string{"sampling_frequency"}, info.Attributes)
}
