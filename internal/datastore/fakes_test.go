package datastore

import (
	"context"
	"dsclient/internal/ports"
	"dsclient/internal/types"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// memBackend is an in-memory DataBackend with injectable CAS conflicts.
type memBackend struct {
	mu       sync.Mutex
	entries  map[string]types.Entry
	conflict int
	writes   int
}

func newMemBackend() *memBackend {
	return &memBackend{entries: map[string]types.Entry{}}
}

func memKey(ref types.StoreRef, key string) string {
	return fmt.Sprintf("%d/%s/%s/%s", ref.UniverseID, ref.Kind, ref.Name, key)
}

func (b *memBackend) Load(_ context.Context, ref types.StoreRef, key string) (*types.Entry, int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[memKey(ref, key)]
	if !ok {
		return nil, 0, nil
	}
	return &e, e.Version, nil
}

func (b *memBackend) UpsertCAS(_ context.Context, ref types.StoreRef, key string, prevVersion int64, next types.Entry) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conflict > 0 {
		b.conflict--
		return false, nil
	}
	k := memKey(ref, key)
	cur, ok := b.entries[k]
	if (ok && cur.Version != prevVersion) || (!ok && prevVersion != 0) {
		return false, nil
	}
	next.Version = prevVersion + 1
	b.entries[k] = next
	b.writes++
	return true, nil
}

func (b *memBackend) Delete(_ context.Context, ref types.StoreRef, key string) (*types.Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := memKey(ref, key)
	e, ok := b.entries[k]
	if !ok {
		return nil, nil
	}
	delete(b.entries, k)
	return &e, nil
}

func (b *memBackend) raw(ref types.StoreRef, key string) (types.Entry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[memKey(ref, key)]
	return e, ok
}

func (b *memBackend) failNextWrites(n int) {
	b.mu.Lock()
	b.conflict = n
	b.mu.Unlock()
}

type fakeProbe struct {
	enabled bool
	err     error
	calls   atomic.Int32
}

func (p *fakeProbe) IsApiAccessEnabled(_ context.Context) (bool, error) {
	p.calls.Add(1)
	return p.enabled, p.err
}

type fakeURLs struct{}

func (fakeURLs) BuildListURL(universeID int64, prefix string, pageSize int) types.ListTarget {
	return types.ListTarget{
		URL:        fmt.Sprintf("mem://%d/stores?prefix=%s&limit=%d", universeID, prefix, pageSize),
		UniverseID: universeID,
		Prefix:     prefix,
		PageSize:   pageSize,
	}
}

// fakePages serves pages by index; a cursor is the index of the next page.
type fakePages struct {
	mu      sync.Mutex
	pages   []types.ListingResult
	err     error
	cursors []string
}

func (f *fakePages) FetchPage(_ context.Context, _ types.ListTarget, cursor string) (types.ListingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursors = append(f.cursors, cursor)
	if f.err != nil {
		return types.ListingResult{}, f.err
	}
	i := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return types.ListingResult{}, err
		}
		i = n
	}
	return f.pages[i], nil
}

func (f *fakePages) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cursors)
}

type capturedEvent struct {
	arn     string
	payload []byte
}

type chanPublisher struct {
	events chan capturedEvent
}

func (p *chanPublisher) PublishRaw(_ context.Context, arn string, payload []byte) error {
	p.events <- capturedEvent{arn: arn, payload: payload}
	return nil
}

// countingBuilder counts constructions. The delay widens the window in which
// concurrent acquires race for the same key.
type countingBuilder struct {
	inner    HandleBuilder
	delay    time.Duration
	legacy   atomic.Int32
	standard atomic.Int32
	ordered  atomic.Int32
}

func (b *countingBuilder) NewLegacy() ports.Handle {
	b.legacy.Add(1)
	time.Sleep(b.delay)
	return b.inner.NewLegacy()
}

func (b *countingBuilder) NewStandard(key types.StoreKey, gen types.Generation, allScopes bool) ports.Handle {
	b.standard.Add(1)
	time.Sleep(b.delay)
	return b.inner.NewStandard(key, gen, allScopes)
}

func (b *countingBuilder) NewOrdered(key types.StoreKey) ports.OrderedHandle {
	b.ordered.Add(1)
	time.Sleep(b.delay)
	return b.inner.NewOrdered(key)
}
