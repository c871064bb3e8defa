package ports

import (
	"context"
	"dsclient/internal/types"
)

// Handle is a named, scoped store handed out by the datastore service. A handle
// is shared by every caller that asks for the same name, scope and kind, so
// implementations MUST be safe for concurrent use.
type Handle interface {
	Name() string
	Scope() string
	Kind() types.StoreKind
	Generation() types.Generation

	// GetAsync returns the decoded value for key, or nil if it does not exist.
	GetAsync(ctx context.Context, key string) (any, error)
	SetAsync(ctx context.Context, key string, value any) error
	// UpdateAsync applies fn to the current value and stores the result. When fn
	// returns nil the write is cancelled and nil is returned.
	UpdateAsync(ctx context.Context, key string, fn func(old any) any) (any, error)
	IncrementAsync(ctx context.Context, key string, delta int64) (int64, error)
	// RemoveAsync deletes key and returns the value it held.
	RemoveAsync(ctx context.Context, key string) (any, error)
}

// VersionedHandle is implemented by V2 handles, which also report key metadata.
type VersionedHandle interface {
	Handle
	GetWithInfoAsync(ctx context.Context, key string) (any, *types.KeyInfo, error)
}

// OrderedHandle stores integer values only.
type OrderedHandle interface {
	Name() string
	Scope() string

	GetAsync(ctx context.Context, key string) (int64, bool, error)
	SetAsync(ctx context.Context, key string, value int64) error
	IncrementAsync(ctx context.Context, key string, delta int64) (int64, error)
	RemoveAsync(ctx context.Context, key string) (int64, bool, error)
}
