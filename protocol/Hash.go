/*
File Name:  Hash.go

Wire-level constants shared by every message shape in this package.
*/

package protocol

// HashSize is the digest size of the hash identifying a whole file or a
// single block. The node uses SHA-256, so this is always 32.
const HashSize = 32
