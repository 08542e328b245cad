/*
File Name:  Discovery.go

Discovery query structure, sent via UDP multicast to the announce port:

Offset  Size  Info
0       32    whole_hash
32      1     flag (1 = also request FileMetadata, 0 = availability only)
*/

package protocol

import "errors"

// DiscoveryQueryLength is the exact length of an encoded discovery query.
const DiscoveryQueryLength = HashSize + 1

// EncodeDiscoveryQuery assembles a discovery query datagram.
func EncodeDiscoveryQuery(wholeHash []byte, wantMetadata bool) (raw []byte, err error) {
	if len(wholeHash) != HashSize {
		return nil, errors.New("protocol: invalid hash size")
	}

	raw = make([]byte, DiscoveryQueryLength)
	copy(raw[:HashSize], wholeHash)
	if wantMetadata {
		raw[HashSize] = 1
	}

	return raw, nil
}

// DecodeDiscoveryQuery parses a discovery query datagram.
func DecodeDiscoveryQuery(raw []byte) (wholeHash []byte, wantMetadata bool, err error) {
	if len(raw) != DiscoveryQueryLength {
		return nil, false, errors.New("protocol: invalid discovery query length")
	}

	wholeHash = make([]byte, HashSize)
	copy(wholeHash, raw[:HashSize])

	return wholeHash, raw[HashSize] == 1, nil
}
