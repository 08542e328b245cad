package reuseport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListenPacketReusableBinds(t *testing.T) {
	conn, err := ListenPacketReusable("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	require.NotEmpty(t, conn.LocalAddr().String())
}

func TestListenPacketReusableAllowsSecondBindAfterClose(t *testing.T) {
	conn, err := ListenPacketReusable("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	addr := conn.LocalAddr().String()
	require.NoError(t, conn.Close())

	second, err := ListenPacketReusable("udp4", addr)
	require.NoError(t, err)
	defer second.Close()
}
