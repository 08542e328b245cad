/*
File Name:  BlockRequest.go

Block request structure, sent via TCP to peer:BASE_PORT. The sender
half-closes the write side after sending it and reads the raw block bytes
(or zero bytes, on a miss) until EOF.

Offset  Size  Info
0       32    whole_hash
32      8     block_id (uint64 LE)
*/

package protocol

import (
	"encoding/binary"
	"errors"
)

// BlockRequestLength is the exact length of an encoded block request.
const BlockRequestLength = HashSize + 8

// EncodeBlockRequest assembles a block request.
func EncodeBlockRequest(wholeHash []byte, blockID uint64) (raw []byte, err error) {
	if len(wholeHash) != HashSize {
		return nil, errors.New("protocol: invalid hash size")
	}

	raw = make([]byte, BlockRequestLength)
	copy(raw[:HashSize], wholeHash)
	binary.LittleEndian.PutUint64(raw[HashSize:], blockID)

	return raw, nil
}

// DecodeBlockRequest parses a block request.
func DecodeBlockRequest(raw []byte) (wholeHash []byte, blockID uint64, err error) {
	if len(raw) != BlockRequestLength {
		return nil, 0, errors.New("protocol: invalid block request length")
	}

	wholeHash = make([]byte, HashSize)
	copy(wholeHash, raw[:HashSize])
	blockID = binary.LittleEndian.Uint64(raw[HashSize:])

	return wholeHash, blockID, nil
}
