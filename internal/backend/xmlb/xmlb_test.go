package xmlb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openiio/goiio/internal/backend"
)

const doc = `<?xml version="1.0"?><context name="test"><device id="iio:device0" name="ad7124-8"></device></context>` + "\n"

func TestOpenContextInline(t *testing.T) {
	b := New()
	c, err := b.OpenContext(context.Background(), backend.OpenParams{}, "xml:"+doc)
	require.NoError(t, err)
	require.Len(t, c.Graph.Devices, 1)
	require.Equal(t, "ad7124-8", c.Graph.Devices[0].Name)
}

func TestOpenContextFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctx.xml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	b := New()
	c, err := b.OpenContext(context.Background(), backend.OpenParams{}, "xml:"+path)
	require.NoError(t, err)
	require.Len(t, c.Graph.Devices, 1)
}

func TestOperationsNotSupported(t *testing.T) {
	b := New()
	c, err := b.OpenContext(context.Background(), backend.OpenParams{}, "xml:"+doc)
	require.NoError(t, err)

	_, err = b.ReadAttr(context.Background(), c, backend.AttrRef{})
	require.Error(t, err)
	require.Equal(t, backend.Capabilities(0), b.Capabilities())
}
