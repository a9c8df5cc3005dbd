package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiscoverLocalFindsBus(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "iio:device0"), 0o755))

	old := LocalRoot
	LocalRoot = dir
	t.Cleanup(func() { LocalRoot = old })

	results, err := discoverLocal(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "local:", results[0].URI)
}

func TestDiscoverLocalAbsentBusYieldsNothing(t *testing.T) {
	old := LocalRoot
	LocalRoot = filepath.Join(t.TempDir(), "does-not-exist")
	t.Cleanup(func() { LocalRoot = old })

	results, err := discoverLocal(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, results)
}
