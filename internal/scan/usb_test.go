package scan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiscoverUSBWithoutEnumeratorIsEmpty(t *testing.T) {
	SetUSBEnumerator(nil)
	results, err := discoverUSB(context.Background(), "0456:b212")
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestDiscoverUSBRejectsMalformedFilter(t *testing.T) {
	SetUSBEnumerator(func(ctx context.Context, filter string) ([]Result, error) {
		t.Fatal("enumerator should not be called for a malformed filter")
		return nil, nil
	})
	t.Cleanup(func() { SetUSBEnumerator(nil) })

	results, err := discoverUSB(context.Background(), "not-a-vidpid")
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestDiscoverUSBDefaultsToWildcard(t *testing.T) {
	var gotArg string
	SetUSBEnumerator(func(ctx context.Context, filter string) ([]Result, error) {
		gotArg = filter
		return nil, nil
	})
	t.Cleanup(func() { SetUSBEnumerator(nil) })

	_, err := discoverUSB(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "*", gotArg)
}
