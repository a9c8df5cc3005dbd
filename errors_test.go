package iio

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsKindMatchesStructuredError(t *testing.T) {
	err := NewDeviceError("Op", "dev0", KindNotFound, "nope")
	require.True(t, IsKind(err, KindNotFound))
	require.False(t, IsKind(err, KindBadState))
	require.True(t, errors.Is(err, KindNotFound))
}

func TestWrapErrorMapsErrno(t *testing.T) {
	err := WrapError("ReadAttr", syscall.ENOENT)
	require.True(t, IsKind(err, KindNotFound))
	require.True(t, IsErrno(err, syscall.ENOENT))
}

func TestWrapErrorPreservesStructuredError(t *testing.T) {
	inner := NewChannelError("Inner", "dev0", "voltage0", KindTimeout, "slow")
	wrapped := WrapError("Outer", inner)
	require.Equal(t, KindTimeout, wrapped.Kind)
	require.Equal(t, "dev0", wrapped.Device)
	require.Equal(t, "voltage0", wrapped.Channel)
}

func TestWrapErrorNilIsNil(t *testing.T) {
	require.Nil(t, WrapError("Op", nil))
}

func TestErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	e := &Error{Op: "Op", Kind: KindIOError, Inner: base}
	require.ErrorIs(t, e, KindIOError)
	require.Equal(t, base, errors.Unwrap(e))
}
