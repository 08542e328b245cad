/*
File Name:  Availability.go

Availability reply structure, sent via UDP unicast back to the query
sender. It is the server's ranked list of locally available block IDs for
a single file:

Offset  Size     Info
0       4        count of block IDs (uint32 LE)
4       count*8  block IDs (uint64 LE), in the server's preferred order
*/

package protocol

import (
	"encoding/binary"
	"errors"
)

// EncodeBlockList serializes an ordered list of block IDs.
func EncodeBlockList(blockIDs []uint64) []byte {
	raw := make([]byte, 4+len(blockIDs)*8)
	binary.LittleEndian.PutUint32(raw[0:4], uint32(len(blockIDs)))

	for i, id := range blockIDs {
		offset := 4 + i*8
		binary.LittleEndian.PutUint64(raw[offset:offset+8], id)
	}

	return raw
}

// DecodeBlockList parses an ordered list of block IDs.
func DecodeBlockList(raw []byte) (blockIDs []uint64, err error) {
	if len(raw) < 4 {
		return nil, errors.New("protocol: block list too short")
	}

	count := binary.LittleEndian.Uint32(raw[0:4])
	expected := 4 + int(count)*8
	if len(raw) != expected {
		return nil, errors.New("protocol: block list length mismatch")
	}

	blockIDs = make([]uint64, count)
	for i := range blockIDs {
		offset := 4 + i*8
		blockIDs[i] = binary.LittleEndian.Uint64(raw[offset : offset+8])
	}

	return blockIDs, nil
}
