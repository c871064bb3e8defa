package app

import (
	"context"
	"dsclient/internal/types"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInvalidLogLevel(t *testing.T) {
	_, err := New(context.Background(), types.AppConfig{LogLevel: "loud", DataBackend: types.BackendRedis})
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestUnknownDataBackend(t *testing.T) {
	_, err := New(context.Background(), types.AppConfig{DataBackend: "mongo"})
	require.ErrorIs(t, err, types.ErrInvalidBackend)
}

func TestMissingDefaultsFile(t *testing.T) {
	_, err := New(context.Background(), types.AppConfig{
		DataBackend:  types.BackendRedis,
		DefaultsFile: "does-not-exist.yml",
	})
	require.Error(t, err)
}
