package datastore

import (
	"context"
	"dsclient/internal/ports"
	"dsclient/internal/types"
	"errors"
	"sync"
)

const apiNotSupported = "400: API not supported"

// ListStores enumerates the stores of the universe whose names start with
// prefix. pageSize <= 0 leaves the page size to the server.
//
// The V2 flag is checked first, then write access; a failure at either step
// stops the call and is returned as a *types.Failure. On success the first page
// is already loaded.
func (s *Service) ListStores(ctx context.Context, prefix string, pageSize int) (*ListingPages, error) {
	if !s.flags.GetFlag(FlagV2Enabled) {
		s.metrics.Listing("disabled")
		return nil, types.Fail(types.ErrFeatureDisabled, apiNotSupported)
	}
	if err := s.CheckWriteAccess(ctx); err != nil {
		s.metrics.Listing("denied")
		return nil, err
	}
	if s.urls == nil || s.pages == nil {
		s.metrics.Listing("error")
		return nil, types.Fail(types.ErrFeatureDisabled, "store listing is not configured")
	}

	target := s.urls.BuildListURL(s.cfg.UniverseID, prefix, pageSize)
	page := NewListingPages(s.pages, target)
	if err := page.AdvanceToNextPage(ctx); err != nil {
		s.metrics.Listing("error")
		return nil, err
	}
	s.metrics.Listing("ok")
	return page, nil
}

// ListingPages walks a store listing forward, one page at a time. It cannot be
// rewound and belongs to the caller that created it.
type ListingPages struct {
	fetcher ports.PageFetcher
	target  types.ListTarget

	mu       sync.Mutex
	cursor   string
	current  []types.StoreInfo
	finished bool
	pages    int
}

func NewListingPages(fetcher ports.PageFetcher, target types.ListTarget) *ListingPages {
	return &ListingPages{fetcher: fetcher, target: target}
}

// AdvanceToNextPage replaces the current page with the next one. Calling it
// after the last page fails with types.ErrPrecondition.
func (p *ListingPages) AdvanceToNextPage(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return types.Fail(types.ErrPrecondition, "no pages to advance to")
	}
	res, err := p.fetcher.FetchPage(ctx, p.target, p.cursor)
	if err != nil {
		var f *types.Failure
		if errors.As(err, &f) {
			return f
		}
		return types.Fail(types.ErrDataStoreAccess, "list data stores: %v", err)
	}
	p.current = res.Stores
	p.cursor = res.NextCursor
	p.finished = res.NextCursor == ""
	p.pages++
	return nil
}

// GetCurrentPage returns a copy of the stores on the current page.
func (p *ListingPages) GetCurrentPage() []types.StoreInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.StoreInfo, len(p.current))
	copy(out, p.current)
	return out
}

// IsFinished reports whether the current page is the last one.
func (p *ListingPages) IsFinished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finished
}

func (p *ListingPages) Target() types.ListTarget { return p.target }

// PagesFetched counts successful advances, including the first one.
func (p *ListingPages) PagesFetched() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pages
}
