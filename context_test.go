package iio

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openiio/goiio/internal/model"
)

func testGraph() *model.Graph {
	return &model.Graph{
		Name:        "test",
		Description: "fake context for unit tests",
		Devices: []model.Device{
			{
				ID:   "iio:device0",
				Name: "ad7192",
				Channels: []model.Channel{
					{ID: "voltage0", ScanIndex: 0, Format: model.DataFormat{Bits: 24, Storage: 32}, Attributes: []model.Attribute{{Name: "raw"}, {Name: "scale"}}},
					{ID: "voltage1", ScanIndex: 1, Format: model.DataFormat{Bits: 24, Storage: 32}},
					{ID: "timestamp", Label: "", ScanIndex: 2, Format: model.DataFormat{Bits: 64, Storage: 64}},
				},
				Attributes: []model.Attribute{{Name: "sampling_frequency"}},
			},
			{ID: "trigger0", Name: "sysfstrig0", IsTrigger: true},
		},
	}
}

func newTestContext(t *testing.T, key string) *Context {
	t.Helper()
	RegisterMemoryGraph(key, testGraph())
	ctx, err := CreateContext("mem:" + key)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Destroy() })
	return ctx
}

func TestCreateContextUnknownScheme(t *testing.T) {
	_, err := CreateContext("bogus:whatever")
	require.Error(t, err)
	require.True(t, IsKind(err, KindNotSupported))
}

func TestCreateContextMalformedURI(t *testing.T) {
	_, err := CreateContext("no-scheme-here")
	require.Error(t, err)
	require.True(t, IsKind(err, KindBadArgument))
}

func TestContextDeviceEnumeration(t *testing.T) {
	ctx := newTestContext(t, "enum")

	require.Equal(t, 2, ctx.DeviceCount())
	dev, err := ctx.DeviceAt(0)
	require.NoError(t, err)
	require.Equal(t, "iio:device0", dev.ID())
	require.Equal(t, "ad7192", dev.Name())
	require.False(t, dev.IsTrigger())

	trig, err := ctx.DeviceAt(1)
	require.NoError(t, err)
	require.True(t, trig.IsTrigger())

	_, err = ctx.DeviceAt(99)
	require.Error(t, err)
	require.True(t, IsKind(err, KindNotFound))
}

func TestContextFindDevice(t *testing.T) {
	ctx := newTestContext(t, "find")

	dev, err := ctx.FindDevice("ad7192")
	require.NoError(t, err)
	require.Equal(t, "iio:device0", dev.ID())

	_, err = ctx.FindDevice("does-not-exist")
	require.Error(t, err)
	require.True(t, IsKind(err, KindNotFound))
}

func TestContextDestroyIsIdempotentAndPoisonsHandles(t *testing.T) {
	RegisterMemoryGraph("destroy", testGraph())
	ctx, err := CreateContext("mem:destroy")
	require.NoError(t, err)

	require.NoError(t, ctx.Destroy())
	require.NoError(t, ctx.Destroy())

	require.Panics(t, func() { ctx.Devices() })
}

func TestContextXML(t *testing.T) {
	ctx := newTestContext(t, "xml")
	xmlStr, err := ctx.XML()
	require.NoError(t, err)
	require.Contains(t, xmlStr, `<context`)
	require.Contains(t, xmlStr, `id="iio:device0"`)
	require.Contains(t, xmlStr, `id="voltage0"`)
}

func TestContextInfoSnapshot(t *testing.T) {
	ctx := newTestContext(t, "info")
	info := ctx.Info()
	require.Equal(t, "mem:info", info.URI)
	require.Len(t, info.Devices, 2)
	require.Equal(t, "iio:device0", info.Devices[0].ID)
	require.Len(t, info.Devices[0].Channels, 3)
}
