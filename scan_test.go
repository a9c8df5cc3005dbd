package iio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openiio/goiio/internal/scan"
)

func TestScanContextsDeduplicatesAndDefaultsToUSBNil(t *testing.T) {
	SetUSBEnumerator(nil)
	results, err := ScanContexts("usb=0456:b212")
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestScanContextsUsesRegisteredDiscoverer(t *testing.T) {
	scan.Register("fake-scan-test", scan.DiscovererFunc(func(ctx context.Context, arg string) ([]scan.Result, error) {
		return []scan.Result{{URI: "fake:one", Description: "one"}, {URI: "fake:one", Description: "dup"}}, nil
	}))

	results, err := ScanContextsContext(context.Background(), "fake-scan-test")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "fake:one", results[0].URI)
}

func TestSetUSBEnumeratorIsWired(t *testing.T) {
	called := false
	SetUSBEnumerator(func(ctx context.Context, filter string) ([]ScanResult, error) {
		called = true
		require.Equal(t, "0456:b212", filter)
		return []ScanResult{{URI: "usb:1.2.3", Description: "fake usb device"}}, nil
	})
	t.Cleanup(func() { SetUSBEnumerator(nil) })

	results, err := ScanContexts("usb=0456:b212")
	require.NoError(t, err)
	require.True(t, called)
	require.Len(t, results, 1)
	require.Equal(t, "usb:1.2.3", results[0].URI)
}
