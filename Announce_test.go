package core

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/netdrop/node/protocol"
	"github.com/netdrop/node/warehouse"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) (*Backend, *warehouse.FileMetadata) {
	t.Helper()

	fs := afero.NewMemMapFs()
	data := bytes.Repeat([]byte{0x55}, 4096)
	require.NoError(t, afero.WriteFile(fs, "/f", data, 0o644))

	metadata, err := warehouse.Prepare(fs, "/f")
	require.NoError(t, err)

	catalog := NewCatalog()
	require.NoError(t, catalog.Add(&LocalFile{Metadata: metadata, LocalPath: "/f"}))

	backend, err := Init(&Config{Listen: "127.0.0.1"}, fs, catalog, Hooks{})
	require.NoError(t, err)

	return backend, metadata
}

func TestHandleDiscoveryQueryUnknownHashIsSilent(t *testing.T) {
	backend, _ := newTestBackend(t)

	sender, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	defer sender.Close()

	unknownHash := bytes.Repeat([]byte{0xFF}, protocol.HashSize)
	raw, err := protocol.EncodeDiscoveryQuery(unknownHash, false)
	require.NoError(t, err)

	backend.handleDiscoveryQuery(raw, sender.LocalAddr())

	require.NoError(t, sender.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	buf := make([]byte, 64)
	_, _, err = sender.ReadFromUDP(buf)
	require.Error(t, err) // expect a timeout: no reply was sent
}

func TestHandleDiscoveryQueryKnownHashReplies(t *testing.T) {
	backend, metadata := newTestBackend(t)

	sender, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	defer sender.Close()

	raw, err := protocol.EncodeDiscoveryQuery(metadata.WholeHash, false)
	require.NoError(t, err)

	backend.handleDiscoveryQuery(raw, sender.LocalAddr())

	require.NoError(t, sender.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, MaxDatagramSize)
	n, _, err := sender.ReadFromUDP(buf)
	require.NoError(t, err)

	blockIDs, err := protocol.DecodeBlockList(buf[:n])
	require.NoError(t, err)
	require.Len(t, blockIDs, int(metadata.BlockCount()))
}
