package core

import (
	"bytes"
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/netdrop/node/warehouse"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// TestSinglePeerRoundtrip exercises §8 scenario 1 at the block-transfer
// level: a real TCP block server backed by a prepared catalog entry, and
// the requester's download+verify+finalize path fetching from it. The
// multicast discovery phase (S1-S5) is exercised separately in
// Scheduler_test.go and Announce_test.go; this test starts from an
// already-built BlockSources, as S6 does.
func TestSinglePeerRoundtrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	original := bytes.Repeat([]byte{0xAA}, 4096)
	require.NoError(t, afero.WriteFile(fs, "/source.bin", original, 0o644))

	metadata, err := warehouse.Prepare(fs, "/source.bin")
	require.NoError(t, err)

	catalog := NewCatalog()
	require.NoError(t, catalog.Add(&LocalFile{Metadata: metadata, LocalPath: "/source.bin"}))

	backend, err := Init(&Config{Listen: "127.0.0.1"}, fs, catalog, Hooks{})
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:8888")
	require.NoError(t, err)
	defer listener.Close()

	go backend.ServeBlocksOn(fs, listener)

	sources := make(BlockSources, metadata.BlockCount())
	for i := range sources {
		sources[i] = []BlockSource{{PeerIP: "127.0.0.1", Rank: 0}}
	}
	order := RarityOrder(sources)

	require.NoError(t, backend.downloadBlocks(fs, "/dest.bin", uuid.New(), metadata, sources, order))
	require.NoError(t, finalizeTrailingBytes(fs, "/dest.bin", metadata))

	got, err := afero.ReadFile(fs, "/dest.bin")
	require.NoError(t, err)
	require.Equal(t, original, got)
}

func TestSinglePeerRoundtripSmallFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	original := []byte("x") // BlockSize is at least 2, so one byte is smaller than one block
	require.NoError(t, afero.WriteFile(fs, "/source.bin", original, 0o644))

	metadata, err := warehouse.Prepare(fs, "/source.bin")
	require.NoError(t, err)
	require.Empty(t, metadata.BlockHashes)

	catalog := NewCatalog()
	require.NoError(t, catalog.Add(&LocalFile{Metadata: metadata, LocalPath: "/source.bin"}))

	backend, err := Init(&Config{Listen: "127.0.0.1"}, fs, catalog, Hooks{})
	require.NoError(t, err)

	sources := make(BlockSources, metadata.BlockCount())
	order := RarityOrder(sources)

	require.NoError(t, backend.downloadBlocks(fs, "/dest.bin", uuid.New(), metadata, sources, order))
	require.NoError(t, finalizeTrailingBytes(fs, "/dest.bin", metadata))

	got, err := afero.ReadFile(fs, "/dest.bin")
	require.NoError(t, err)
	require.Equal(t, original, got)
}

func TestFetchBlockFromSourcesExhaustedWhenNoSourceConnects(t *testing.T) {
	fs := afero.NewMemMapFs()
	catalog := NewCatalog()
	backend, err := Init(&Config{Listen: "127.0.0.1"}, fs, catalog, Hooks{})
	require.NoError(t, err)

	// No listener on this address: every source fails to connect, so the
	// block is reported exhausted rather than hanging.
	_, err = backend.fetchBlockFromSources([]byte("hash"), 0, []byte("expected"), []BlockSource{
		{PeerIP: "127.0.0.1", Rank: 0},
	})
	require.Error(t, err)
}
