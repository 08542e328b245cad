package warehouse

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestReadBlockMatchesPreparedHashes(t *testing.T) {
	fs := afero.NewMemMapFs()
	blockSize := BlockSize(4000)
	data := bytes.Repeat([]byte{0xAA}, int(blockSize)*2+5)
	writeFile(t, fs, "/f", data)

	meta, err := Prepare(fs, "/f")
	require.NoError(t, err)

	for id, expected := range meta.BlockHashes {
		block, err := ReadBlock(fs, "/f", meta.Size, uint64(id))
		require.NoError(t, err)
		require.True(t, VerifyBlock(block, expected))
	}
}

func TestReadBlockOutOfRange(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := []byte("short")
	writeFile(t, fs, "/f", data)

	_, err := ReadBlock(fs, "/f", uint64(len(data)), 100)
	require.Error(t, err)
}

func TestVerifyBlockRejectsMismatch(t *testing.T) {
	wrongHash := bytes.Repeat([]byte{0xFF}, HashSize)
	require.False(t, VerifyBlock([]byte("data"), wrongHash))
}

func TestVerifyBlockRejectsWrongLength(t *testing.T) {
	require.False(t, VerifyBlock([]byte("data"), []byte{0x01, 0x02}))
}
