package backends

import (
	"context"
	"dsclient/internal/backends/file"
	"dsclient/internal/types"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnknownBackends(t *testing.T) {
	c := NewClients(types.AppConfig{DataBackend: "mongo", SettingsBackend: "etcd"})
	_, err := c.DataBackendFromConfig(context.Background())
	require.ErrorIs(t, err, types.ErrInvalidBackend)
	_, err = c.SettingsSourceFromConfig(context.Background())
	require.ErrorIs(t, err, types.ErrInvalidBackend)
}

func TestSettingsSourceSelection(t *testing.T) {
	ctx := context.Background()

	src, err := NewClients(types.AppConfig{SettingsBackend: types.BackendNone}).SettingsSourceFromConfig(ctx)
	require.NoError(t, err)
	require.Nil(t, src)

	src, err = NewClients(types.AppConfig{SettingsBackend: types.BackendFile, SettingsFile: "settings.yml"}).SettingsSourceFromConfig(ctx)
	require.NoError(t, err)
	require.IsType(t, &file.SettingsFile{}, src)
}

func TestCloseWithoutConnections(t *testing.T) {
	require.NoError(t, NewClients(types.AppConfig{}).Close())
}
