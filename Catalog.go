/*
File Name:  Catalog.go

The catalog is the process-wide set of locally hosted files, keyed by
whole-file hash. It is built once at startup by scanning the configured
paths and is immutable in its file set for the node's lifetime; only
each LocalFile's in-flight serve counters are mutated afterwards, and
only inside the catalog's lock.
*/

package core

import (
	"fmt"
	gopath "path"
	"sort"
	"strings"
	"sync"

	"github.com/netdrop/node/cache"
	"github.com/netdrop/node/sanitize"
	"github.com/netdrop/node/warehouse"
	"github.com/spf13/afero"
)

// blockServeState tracks how many peers are currently downloading a block
// from this node, used only to bias announcement ordering.
type blockServeState struct {
	BlockID            uint64
	InFlightServeCount int
}

// LocalFile is a catalog entry: a FileMetadata plus the local path it was
// read from and per-block serve-busyness counters.
type LocalFile struct {
	Metadata  *warehouse.FileMetadata
	LocalPath string

	blocks []blockServeState
}

// Catalog maps whole_hash to LocalFile. Safe for concurrent use.
type Catalog struct {
	mutex sync.Mutex
	files map[string]*LocalFile
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{files: make(map[string]*LocalFile)}
}

// Add inserts file into the catalog. It is a fatal configuration error for
// two entries to share a whole_hash; Add reports it as an error rather than
// exiting so the caller decides how to terminate.
func (c *Catalog) Add(file *LocalFile) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	key := string(file.Metadata.WholeHash)
	if _, exists := c.files[key]; exists {
		return fmt.Errorf("catalog: duplicate whole_hash for %s", file.LocalPath)
	}

	blocks := make([]blockServeState, file.Metadata.BlockCount())
	for i := range blocks {
		blocks[i] = blockServeState{BlockID: uint64(i)}
	}
	file.blocks = blocks

	c.files[key] = file
	return nil
}

// Lookup returns the LocalFile for wholeHash, if any.
func (c *Catalog) Lookup(wholeHash []byte) (file *LocalFile, found bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	file, found = c.files[string(wholeHash)]
	return file, found
}

// WithFileMut acquires the catalog lock, looks up wholeHash, and applies fn
// to it if found. I/O must never happen inside fn; copy out whatever is
// needed and do I/O after WithFileMut returns.
func (c *Catalog) WithFileMut(wholeHash []byte, fn func(*LocalFile)) (found bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	file, ok := c.files[string(wholeHash)]
	if !ok {
		return false
	}

	fn(file)
	return true
}

// AnnounceOrder returns the file's block IDs sorted by ascending
// in_flight_serve_count (least-busy first). An empty result means the
// announce handler should suppress the reply.
func (file *LocalFile) AnnounceOrder() []uint64 {
	ordered := make([]blockServeState, len(file.blocks))
	copy(ordered, file.blocks)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].InFlightServeCount < ordered[j].InFlightServeCount
	})

	ids := make([]uint64, len(ordered))
	for i, b := range ordered {
		ids[i] = b.BlockID
	}
	return ids
}

// incServe and decServe bump a block's in-flight serve counter; they must
// only be called from inside WithFileMut.
func (file *LocalFile) incServe(blockID uint64) {
	for i := range file.blocks {
		if file.blocks[i].BlockID == blockID {
			file.blocks[i].InFlightServeCount++
			return
		}
	}
}

func (file *LocalFile) decServe(blockID uint64) {
	for i := range file.blocks {
		if file.blocks[i].BlockID == blockID && file.blocks[i].InFlightServeCount > 0 {
			file.blocks[i].InFlightServeCount--
			return
		}
	}
}

// sanitizePath applies sanitize.PathDirectory/PathFile to a configured
// catalog path. Backslashes are first turned into forward slashes; the
// directory and filename components are then sanitized independently and
// rejoined, keeping a leading "/" for absolute paths.
func sanitizePath(configuredPath string) string {
	configuredPath = strings.ReplaceAll(configuredPath, "\\", "/")
	directory := sanitize.PathDirectory(gopath.Dir(configuredPath))
	filename := sanitize.PathFile(gopath.Base(configuredPath))

	joined := filename
	if directory != "" && directory != "." {
		joined = directory + "/" + filename
	}

	if strings.HasPrefix(configuredPath, "/") {
		return "/" + joined
	}
	return joined
}

// ForEach calls fn once per catalog entry. fn must not mutate the catalog;
// use WithFileMut for that.
func (c *Catalog) ForEach(fn func(*LocalFile)) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, file := range c.files {
		fn(file)
	}
}

// ScanCatalog builds a Catalog by hashing every path in paths, consulting
// metadataCache first to avoid re-hashing a file whose size and mtime have
// not changed since it was last cached.
func ScanCatalog(fs afero.Fs, paths []string, metadataCache *cache.MetadataCache) (*Catalog, error) {
	catalog := NewCatalog()

	for _, configuredPath := range paths {
		path := sanitizePath(configuredPath)

		stat, err := fs.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: stat %s: %w", path, err)
		}

		size := uint64(stat.Size())
		modTime := stat.ModTime().Unix()

		metadata, ok := metadataCache.Get(path, size, modTime)
		if !ok {
			metadata, err = warehouse.Prepare(fs, path)
			if err != nil {
				return nil, fmt.Errorf("catalog: prepare %s: %w", path, err)
			}
			if err := metadataCache.Put(path, size, modTime, metadata); err != nil {
				return nil, fmt.Errorf("catalog: cache %s: %w", path, err)
			}
		}

		if err := catalog.Add(&LocalFile{Metadata: metadata, LocalPath: path}); err != nil {
			return nil, err
		}
	}

	return catalog, nil
}
