package datastore

import (
	"dsclient/internal/ports"
	"dsclient/internal/types"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// HandleBuilder constructs store handles for the registry. Construction must
// not block: it runs while the registry holds the slot for the key.
type HandleBuilder interface {
	NewLegacy() ports.Handle
	NewStandard(key types.StoreKey, gen types.Generation, allScopes bool) ports.Handle
	NewOrdered(key types.StoreKey) ports.OrderedHandle
}

// CreatedFunc is called once per constructed handle, after it was inserted.
type CreatedFunc func(key types.StoreKey, kind types.StoreKind, gen types.Generation)

// Registry memoizes store handles. At most one handle exists per composed
// (name, scope) key and kind for the lifetime of the registry, and the first
// request decides its generation. There is no eviction.
//
// Check-then-insert is a single LoadOrCompute on the key's bucket, so
// concurrent requests for the same key construct exactly one handle.
type Registry struct {
	build   HandleBuilder
	created CreatedFunc

	standard *xsync.MapOf[string, ports.Handle]
	ordered  *xsync.MapOf[string, ports.OrderedHandle]

	legacyOnce sync.Once
	legacy     ports.Handle
}

func NewRegistry(build HandleBuilder, created CreatedFunc) *Registry {
	if created == nil {
		created = func(types.StoreKey, types.StoreKind, types.Generation) {}
	}
	return &Registry{
		build:    build,
		created:  created,
		standard: xsync.NewMapOf[string, ports.Handle](),
		ordered:  xsync.NewMapOf[string, ports.OrderedHandle](),
	}
}

// AcquireLegacy returns the process wide legacy handle. Name and scope play no
// part in its identity.
func (r *Registry) AcquireLegacy() (ports.Handle, bool) {
	fresh := false
	r.legacyOnce.Do(func() {
		r.legacy = r.build.NewLegacy()
		fresh = true
	})
	if fresh {
		r.created(types.StoreKey{Name: r.legacy.Name(), Scope: r.legacy.Scope()}, types.KindLegacy, types.GenerationV1)
	}
	return r.legacy, fresh
}

// AcquireStandard returns the standard handle for key, creating it with gen and
// allScopes if this is the first request. Later requests get the existing
// handle whatever gen and allScopes they pass.
func (r *Registry) AcquireStandard(key types.StoreKey, gen types.Generation, allScopes bool) (ports.Handle, bool) {
	h, loaded := r.standard.LoadOrCompute(key.Composed(), func() ports.Handle {
		return r.build.NewStandard(key, gen, allScopes)
	})
	if !loaded {
		r.created(key, types.KindStandard, gen)
	}
	return h, !loaded
}

// AcquireOrdered returns the ordered handle for key, creating it on first request.
func (r *Registry) AcquireOrdered(key types.StoreKey) (ports.OrderedHandle, bool) {
	h, loaded := r.ordered.LoadOrCompute(key.Composed(), func() ports.OrderedHandle {
		return r.build.NewOrdered(key)
	})
	if !loaded {
		r.created(key, types.KindOrdered, types.GenerationV1)
	}
	return h, !loaded
}

// Len returns the number of standard and ordered handles held.
func (r *Registry) Len() (standard, ordered int) {
	return r.standard.Size(), r.ordered.Size()
}
