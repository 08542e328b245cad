/*
File Name:  Metadata.go

File preparation: hashes a file on disk once (whole-file hash plus one
hash per full block) to produce the FileMetadata a node announces.
*/

package warehouse

import (
	"io"

	"github.com/minio/sha256-simd"
	"github.com/spf13/afero"
)

// HashSize is the SHA-256 digest size.
const HashSize = sha256.Size

// FileMetadata describes a file's content for the purpose of identifying
// and reconstructing it over the network.
type FileMetadata struct {
	// WholeHash is the SHA-256 hash of the concatenation of all full
	// blocks, in order. Trailing bytes (see TrailingBytes) are excluded.
	WholeHash []byte

	// BlockHashes holds one SHA-256 digest per full block, in order.
	BlockHashes [][]byte

	// Size is the total file size in bytes.
	Size uint64

	// TrailingBytes is the file's final size % BlockSize(Size) bytes,
	// carried verbatim so they don't need their own block.
	TrailingBytes []byte
}

// BlockCount returns the number of full blocks.
func (m *FileMetadata) BlockCount() uint64 {
	return uint64(len(m.BlockHashes))
}

// Prepare reads path sequentially and computes its FileMetadata: a
// SHA-256 hash per full block of BlockSize(size) bytes, a whole-file hash
// over the concatenation of those full blocks (trailing bytes excluded,
// per the chosen resolution of the whole_hash open question), and the
// trailing bytes themselves.
func Prepare(fs afero.Fs, path string) (metadata *FileMetadata, err error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := uint64(stat.Size())
	blockSize := BlockSize(size)
	blockCount := size / blockSize
	trailingLen := size % blockSize

	wholeHasher := sha256.New()
	blockHashes := make([][]byte, 0, blockCount)
	buf := make([]byte, blockSize)

	for i := uint64(0); i < blockCount; i++ {
		if _, err := io.ReadFull(f, buf); err != nil {
			return nil, err
		}

		blockHash := sha256.Sum256(buf)
		blockHashes = append(blockHashes, blockHash[:])

		if _, err := wholeHasher.Write(buf); err != nil {
			return nil, err
		}
	}

	trailingBytes := make([]byte, trailingLen)
	if trailingLen > 0 {
		if _, err := io.ReadFull(f, trailingBytes); err != nil {
			return nil, err
		}
	}

	return &FileMetadata{
		WholeHash:     wholeHasher.Sum(nil),
		BlockHashes:   blockHashes,
		Size:          size,
		TrailingBytes: trailingBytes,
	}, nil
}
