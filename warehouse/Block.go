/*
File Name:  Block.go

Single-block I/O: reading one block out of a file on disk and verifying
a block's bytes against the hash a remote peer advertised for it.
*/

package warehouse

import (
	"io"

	"github.com/minio/sha256-simd"
	"github.com/spf13/afero"
)

// ReadBlock reads the blockID'th block of size-byte file path, using
// BlockSize(size) as the geometry. The last block may be shorter than
// BlockSize(size) if blockID*BlockSize(size) falls within the trailing
// bytes region; callers serving full blocks only should not pass a
// blockID beyond size/BlockSize(size)-1.
func ReadBlock(fs afero.Fs, path string, size, blockID uint64) (data []byte, err error) {
	blockSize := BlockSize(size)

	offset := blockSize * blockID
	if offset >= size {
		return nil, io.EOF
	}

	length := blockSize
	if offset+length > size {
		length = size - offset
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := f.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, err
	}

	data = make([]byte, length)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}

	return data, nil
}

// VerifyBlock reports whether data hashes to expectedHash under SHA-256.
func VerifyBlock(data, expectedHash []byte) bool {
	actual := sha256.Sum256(data)
	if len(expectedHash) != len(actual) {
		return false
	}

	for i := range actual {
		if actual[i] != expectedHash[i] {
			return false
		}
	}

	return true
}
