/*
File Name:  MetadataCache.go

Caches warehouse.FileMetadata keyed by path+size+mtime so a catalog scan
does not re-hash a file that has not changed since the last run. This is
a pure optimization layered on top of file preparation: a cache miss (or
a changed size/mtime) always falls back to re-hashing from disk.
*/

package cache

import (
	"fmt"

	"github.com/netdrop/node/protocol"
	"github.com/netdrop/node/store"
	"github.com/netdrop/node/warehouse"
)

// MetadataCache wraps a store.Store to cache FileMetadata by file identity.
type MetadataCache struct {
	backend store.Store
}

// New wraps backend as a MetadataCache.
func New(backend store.Store) *MetadataCache {
	return &MetadataCache{backend: backend}
}

func cacheKey(path string, size uint64, modTimeUnix int64) []byte {
	return []byte(fmt.Sprintf("%s|%d|%d", path, size, modTimeUnix))
}

// Get returns the cached FileMetadata for path if its size and mtime match
// what was cached, and ok is true. A mismatch (or no entry) returns ok=false
// so the caller re-hashes the file.
func (c *MetadataCache) Get(path string, size uint64, modTimeUnix int64) (metadata *warehouse.FileMetadata, ok bool) {
	raw, found := c.backend.Get(cacheKey(path, size, modTimeUnix))
	if !found {
		return nil, false
	}

	wholeHash, blockHashes, decodedSize, trailing, err := protocol.DecodeFileMetadata(raw)
	if err != nil {
		return nil, false
	}

	return &warehouse.FileMetadata{
		WholeHash:     wholeHash,
		BlockHashes:   blockHashes,
		Size:          decodedSize,
		TrailingBytes: trailing,
	}, true
}

// Put stores metadata under path's current size and mtime.
func (c *MetadataCache) Put(path string, size uint64, modTimeUnix int64, metadata *warehouse.FileMetadata) error {
	raw, err := protocol.EncodeFileMetadata(metadata.WholeHash, metadata.BlockHashes, metadata.Size, metadata.TrailingBytes)
	if err != nil {
		return err
	}

	return c.backend.Set(cacheKey(path, size, modTimeUnix), raw)
}
