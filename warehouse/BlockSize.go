/*
File Name:  BlockSize.go

Block geometry. Every node computing BlockSize from the same file size
must get the same answer, since it determines how many block hashes a
FileMetadata carries and where block boundaries fall on disk.
*/

package warehouse

// minBlockSize is the smallest block size ever returned.
const minBlockSize = 2

// maxBlockSize is the point past which a block is considered "big enough"
// regardless of how many of them the file would need.
const maxBlockSize = 1000000

// maxBlockCount is the block count threshold at or below which a given block
// size is accepted even if it is smaller than maxBlockSize.
const maxBlockCount = 1000

// BlockSize returns the block size to use for a file of n bytes: starting
// from 2, the smallest integer b such that b >= 1,000,000 or n/b <= 1000
// (integer division). It is a pure, deterministic function of n; any two
// nodes evaluating it for the same n agree on b.
func BlockSize(n uint64) uint64 {
	for b := uint64(minBlockSize); ; b++ {
		if b >= maxBlockSize || n/b <= maxBlockCount {
			return b
		}
	}
}
