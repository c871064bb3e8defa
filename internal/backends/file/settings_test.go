package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSettingsFileIsReadOnEveryFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yml")
	require.NoError(t, os.WriteFile(path, []byte("flags:\n  DataStoresV2Enabled: true\n"), 0o600))

	src := NewSettingsFile(path)
	s, err := src.FetchSettings(context.Background())
	require.NoError(t, err)
	require.True(t, s.Flags["DataStoresV2Enabled"])

	require.NoError(t, os.WriteFile(path, []byte("flags:\n  DataStoresV2Enabled: false\nints:\n  DataStoreKeyLengthLimit: 10\n"), 0o600))
	s, err = src.FetchSettings(context.Background())
	require.NoError(t, err)
	require.False(t, s.Flags["DataStoresV2Enabled"])
	require.Equal(t, int64(10), s.Ints["DataStoreKeyLengthLimit"])
}

func TestSettingsFileMissing(t *testing.T) {
	src := NewSettingsFile(filepath.Join(t.TempDir(), "nope.yml"))
	_, err := src.FetchSettings(context.Background())
	require.Error(t, err)
}
