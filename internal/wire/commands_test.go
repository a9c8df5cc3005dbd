package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenFieldOrder(t *testing.T) {
	require.Equal(t, "OPEN dev0 1f 4096 0", Open("dev0", "1f", 4096, false))
	require.Equal(t, "OPEN dev0 1f 4096 1", Open("dev0", "1f", 4096, true))
}

func TestReadAttrBuilders(t *testing.T) {
	require.Equal(t, "READ dev0", ReadAttr("dev0", "", ""))
	require.Equal(t, "READ dev0 name", ReadAttr("dev0", "", "name"))
	require.Equal(t, "READ dev0 voltage0 raw", ReadAttr("dev0", "voltage0", "raw"))
}

func TestSetTimeoutAndBuffersCount(t *testing.T) {
	require.Equal(t, "TIMEOUT 1000", SetTimeout(1000))
	require.Equal(t, "SET dev0 BUFFERS_COUNT 4", SetBuffersCount("dev0", 4))
}

func TestTriggerBuilders(t *testing.T) {
	require.Equal(t, "GETTRIG dev0", GetTrig("dev0"))
	require.Equal(t, "SETTRIG dev0 trigger0", SetTrig("dev0", "trigger0"))
	require.Equal(t, "SETTRIG dev0 ", SetTrig("dev0", ""))
}
