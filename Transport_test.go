package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHandleUnicastRoundtrip(t *testing.T) {
	a, err := NewHandle("127.0.0.1")
	require.NoError(t, err)
	defer a.Close()

	b, err := NewHandle("127.0.0.1")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.SendTo([]byte("hello"), b.LocalAddr()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		raw, _, err := b.Receive()
		require.NoError(t, err)
		require.Equal(t, []byte("hello"), raw)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for datagram")
	}
}
