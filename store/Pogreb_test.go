package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPogrebStoreSetGetDelete(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "metadata.db")

	s, err := NewPogrebStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, found := s.Get([]byte("key"))
	require.False(t, found)

	require.NoError(t, s.Set([]byte("key"), []byte("value")))

	data, found := s.Get([]byte("key"))
	require.True(t, found)
	require.Equal(t, []byte("value"), data)

	s.Delete([]byte("key"))
	_, found = s.Get([]byte("key"))
	require.False(t, found)
}

func TestPogrebStorePersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "metadata.db")

	s, err := NewPogrebStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Set([]byte("key"), []byte("value")))
	require.NoError(t, s.Close())

	reopened, err := NewPogrebStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	data, found := reopened.Get([]byte("key"))
	require.True(t, found)
	require.Equal(t, []byte("value"), data)
}
