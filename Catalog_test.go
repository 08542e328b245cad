package core

import (
	"bytes"
	"testing"

	"github.com/netdrop/node/cache"
	"github.com/netdrop/node/store"
	"github.com/netdrop/node/warehouse"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestCatalogAddAndLookup(t *testing.T) {
	catalog := NewCatalog()
	file := &LocalFile{
		Metadata: &warehouse.FileMetadata{
			WholeHash:   bytes.Repeat([]byte{0x01}, warehouse.HashSize),
			BlockHashes: [][]byte{bytes.Repeat([]byte{0x02}, warehouse.HashSize)},
		},
		LocalPath: "/data/a.bin",
	}

	require.NoError(t, catalog.Add(file))

	got, found := catalog.Lookup(file.Metadata.WholeHash)
	require.True(t, found)
	require.Equal(t, "/data/a.bin", got.LocalPath)
}

func TestCatalogRejectsDuplicateHash(t *testing.T) {
	catalog := NewCatalog()
	hash := bytes.Repeat([]byte{0x01}, warehouse.HashSize)

	require.NoError(t, catalog.Add(&LocalFile{
		Metadata:  &warehouse.FileMetadata{WholeHash: hash},
		LocalPath: "/data/a.bin",
	}))

	err := catalog.Add(&LocalFile{
		Metadata:  &warehouse.FileMetadata{WholeHash: hash},
		LocalPath: "/data/b.bin",
	})
	require.Error(t, err)
}

func TestAnnounceOrderLeastBusyFirst(t *testing.T) {
	catalog := NewCatalog()
	hash := bytes.Repeat([]byte{0x03}, warehouse.HashSize)
	file := &LocalFile{
		Metadata: &warehouse.FileMetadata{
			WholeHash:   hash,
			BlockHashes: [][]byte{{1}, {2}, {3}},
		},
		LocalPath: "/data/c.bin",
	}
	require.NoError(t, catalog.Add(file))

	catalog.WithFileMut(hash, func(f *LocalFile) {
		f.incServe(0)
		f.incServe(0)
		f.incServe(1)
	})

	order := file.AnnounceOrder()
	require.Equal(t, uint64(2), order[0])
}

func TestSanitizePathNormalizesSeparatorsAndPreservesAbsolute(t *testing.T) {
	require.Equal(t, "/data/a.bin", sanitizePath(`/data\a.bin`))
	require.Equal(t, "data/a.bin", sanitizePath("data/a.bin"))
	require.Equal(t, "a.bin", sanitizePath("a.bin"))
}

func TestScanCatalogSanitizesConfiguredPaths(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/a.bin", bytes.Repeat([]byte{0x0A}, 100), 0o644))

	metaCache := cache.New(store.NewMemoryStore())

	catalog, err := ScanCatalog(fs, []string{"/data//a.bin"}, metaCache)
	require.NoError(t, err)

	file, found := catalog.Lookup(mustLookupHash(t, catalog))
	require.True(t, found)
	require.Equal(t, "/data/a.bin", file.LocalPath)
}

func TestScanCatalogUsesMetadataCacheOnSecondScan(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/a.bin", bytes.Repeat([]byte{0x09}, 5000), 0o644))

	metaCache := cache.New(store.NewMemoryStore())

	first, err := ScanCatalog(fs, []string{"/data/a.bin"}, metaCache)
	require.NoError(t, err)

	stat, err := fs.Stat("/data/a.bin")
	require.NoError(t, err)
	_, cached := metaCache.Get("/data/a.bin", uint64(stat.Size()), stat.ModTime().Unix())
	require.True(t, cached)

	second, err := ScanCatalog(fs, []string{"/data/a.bin"}, metaCache)
	require.NoError(t, err)

	firstFile, _ := first.Lookup(mustLookupHash(t, first))
	secondFile, _ := second.Lookup(mustLookupHash(t, second))
	require.Equal(t, firstFile.Metadata.WholeHash, secondFile.Metadata.WholeHash)
}

func mustLookupHash(t *testing.T, catalog *Catalog) []byte {
	t.Helper()
	for _, f := range catalog.files {
		return f.Metadata.WholeHash
	}
	t.Fatal("catalog is empty")
	return nil
}
