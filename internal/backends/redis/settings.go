package redis

import (
	"context"
	"dsclient/internal/types"
	"errors"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const settingsKeyName = "_dsclient_settings"

// SettingsStore keeps the runtime variables as one JSON document.
type SettingsStore struct {
	cli *redis.Client
}

func NewSettingsStore(cli *redis.Client) *SettingsStore {
	return &SettingsStore{cli: cli}
}

// FetchSettings implements ports.SettingsSource. A missing document is an
// empty snapshot, not an error.
func (s *SettingsStore) FetchSettings(ctx context.Context) (types.Settings, error) {
	out := s.cli.Get(ctx, settingsKeyName)
	if out.Err() != nil {
		if errors.Is(out.Err(), redis.Nil) {
			return types.NewSettings(), nil
		}
		return types.Settings{}, out.Err()
	}
	settings := types.NewSettings()
	if err := json.Unmarshal([]byte(out.Val()), &settings); err != nil {
		return types.Settings{}, err
	}
	return settings, nil
}

func (s *SettingsStore) PutSettings(ctx context.Context, settings types.Settings) error {
	out, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return s.cli.Set(ctx, settingsKeyName, string(out), 0).Err()
}

// ClearAll removes the settings document, every entry and every store index.
func (s *SettingsStore) ClearAll(ctx context.Context) error {
	keys, err := s.cli.Keys(ctx, "_dsclient_*").Result()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.cli.Del(ctx, keys...).Err()
}
