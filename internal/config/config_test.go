package config

import (
	"dsclient/internal/types"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func newCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	SetupFlags(cmd)
	return cmd
}

func TestDefaults(t *testing.T) {
	cfg, err := Load(New(), newCmd())
	require.NoError(t, err)
	require.Equal(t, types.BackendRedis, cfg.DataBackend)
	require.Equal(t, types.BackendNone, cfg.SettingsBackend)
	require.Equal(t, 30*time.Second, cfg.SettingsRefresh)
	require.Equal(t, "6379", cfg.Redis.Port)
	require.Equal(t, "dsclient", cfg.DDB.Table)
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("DSCLIENT_PLACE_ID", "42")
	t.Setenv("DSCLIENT_DATA_BACKEND", "ddb")
	t.Setenv("DSCLIENT_DDB_ENDPOINT", "http://localhost:4566")
	t.Setenv("DSCLIENT_SETTINGS_REFRESH", "5s")

	cfg, err := Load(New(), newCmd())
	require.NoError(t, err)
	require.Equal(t, int64(42), cfg.PlaceID)
	require.Equal(t, types.BackendDDB, cfg.DataBackend)
	require.Equal(t, "http://localhost:4566", cfg.DDB.Endpoint)
	require.Equal(t, 5*time.Second, cfg.SettingsRefresh)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("DSCLIENT_UNIVERSE_ID", "1")
	cmd := newCmd()
	require.NoError(t, cmd.PersistentFlags().Set("universe-id", "9"))

	cfg, err := Load(New(), cmd)
	require.NoError(t, err)
	require.Equal(t, int64(9), cfg.UniverseID)
}

func TestInvalidConfig(t *testing.T) {
	t.Setenv("DSCLIENT_DATA_BACKEND", "mongo")
	_, err := Load(New(), newCmd())
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	t.Setenv("DSCLIENT_DATA_BACKEND", "redis")
	t.Setenv("DSCLIENT_SETTINGS_BACKEND", "file")
	_, err = Load(New(), newCmd())
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}
