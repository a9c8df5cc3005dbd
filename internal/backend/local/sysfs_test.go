package local

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeSysfs builds a minimal iio:device0 tree under a temp dir,
// mirroring the kernel's real /sys/bus/iio/devices/iio:deviceN
// layout closely enough to exercise buildGraph.
func fakeSysfs(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	devDir := filepath.Join(root, "iio:device0")
	require.NoError(t, os.MkdirAll(filepath.Join(devDir, "scan_elements"), 0o755))

	writeFile(t, filepath.Join(devDir, "name"), "ad7124-8\n")
	writeFile(t, filepath.Join(devDir, "sampling_frequency"), "1000\n")
	writeFile(t, filepath.Join(devDir, "in_voltage0_raw"), "42\n")
	writeFile(t, filepath.Join(devDir, "in_voltage0_scale"), "0.001\n")
	writeFile(t, filepath.Join(devDir, "scan_elements", "in_voltage0_index"), "0\n")
	writeFile(t, filepath.Join(devDir, "scan_elements", "in_voltage0_type"), "le:s24/32>>0\n")

	return root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestBuildGraphFromSysfs(t *testing.T) {
	root := fakeSysfs(t)
	g, err := buildGraph(root)
	require.NoError(t, err)
	require.Len(t, g.Devices, 1)

	dev := g.Devices[0]
	require.Equal(t, "ad7124-8", dev.Name)
	require.Equal(t, "iio:device0", dev.ID)

	idx, ok := g.FindAttr(0, "sampling_frequency")
	require.True(t, ok)
	require.Equal(t, "sampling_frequency", dev.Attributes[idx].Filename)

	require.Len(t, dev.Channels, 1)
	ch := dev.Channels[0]
	require.Equal(t, "in_voltage0", ch.ID)
	require.False(t, ch.Output)
	require.Equal(t, 0, ch.ScanIndex)
	require.Equal(t, 24, ch.Format.Bits)
	require.Equal(t, 32, ch.Format.Storage)

	attrIdx, ok := g.FindChannelAttr(0, 0, "raw")
	require.True(t, ok)
	require.Equal(t, "in_voltage0_raw", ch.Attributes[attrIdx].Filename)
}

func TestBuildGraphMissingRoot(t *testing.T) {
	_, err := buildGraph(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}
