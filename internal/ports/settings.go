package ports

import (
	"context"
	"dsclient/internal/types"
)

// SettingsSource returns the live runtime variables. Implementations SHOULD NOT
// cache; the flags provider does that.
type SettingsSource interface {
	FetchSettings(ctx context.Context) (types.Settings, error)
}
