package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFallsBackToDefaultWhenMissing(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", config.Listen)
	require.Equal(t, "info", config.LogLevel)
}

func TestLoadConfigFallsBackToDefaultWhenEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", config.Listen)
}

func TestLoadConfigParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := []byte("Listen: \"10.0.0.1\"\nLogLevel: \"debug\"\nCatalog:\n  - \"/data/a.bin\"\n")
	require.NoError(t, os.WriteFile(path, contents, 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1", config.Listen)
	require.Equal(t, "debug", config.LogLevel)
	require.Equal(t, []string{"/data/a.bin"}, config.Catalog)
}
