package ports

import (
	"context"
	"dsclient/internal/types"
)

// DataBackend persists entries for every store. Implementations MUST support
// compare-and-set (CAS) semantics to avoid races between writers.
type DataBackend interface {
	// Load returns the entry and a monotonic version suitable for CAS.
	// If no entry exists, (nil,0,nil) MUST be returned.
	Load(ctx context.Context, ref types.StoreRef, key string) (*types.Entry, int64, error)

	// UpsertCAS creates or updates the entry only if the version matches.
	// If prevVersion==0, the entry MUST NOT already exist.
	// Returns true on success (committed), false if precondition failed, error for I/O.
	// A committed write also records ref.Name in the store index used by listing.
	UpsertCAS(ctx context.Context, ref types.StoreRef, key string, prevVersion int64, next types.Entry) (bool, error)

	// Delete removes the entry and returns what it held, or nil if it did not exist.
	Delete(ctx context.Context, ref types.StoreRef, key string) (*types.Entry, error)
}

// PageFetcher fetches one page of store descriptors. An empty cursor asks for
// the first page.
type PageFetcher interface {
	FetchPage(ctx context.Context, target types.ListTarget, cursor string) (types.ListingResult, error)
}
