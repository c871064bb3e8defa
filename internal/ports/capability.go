package ports

import (
	"context"
	"dsclient/internal/types"
)

// CapabilityProbe answers whether privileged (write) API access is enabled for
// the current execution context.
type CapabilityProbe interface {
	IsApiAccessEnabled(ctx context.Context) (bool, error)
}

// URLBuilder builds the request target for a store listing.
type URLBuilder interface {
	BuildListURL(universeID int64, prefix string, pageSize int) types.ListTarget
}
