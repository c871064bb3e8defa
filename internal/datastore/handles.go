package datastore

import (
	"context"
	"dsclient/internal/flags"
	"dsclient/internal/ports"
	"dsclient/internal/types"
	"time"
)

// maxCASAttempts bounds the read-modify-write loop of a single handle call.
const maxCASAttempts = 5

// BackendBuilder builds handles that read and write through a DataBackend.
type BackendBuilder struct {
	universeID int64
	backend    ports.DataBackend
	flags      *flags.Provider
}

func NewBackendBuilder(universeID int64, backend ports.DataBackend, p *flags.Provider) *BackendBuilder {
	return &BackendBuilder{universeID: universeID, backend: backend, flags: p}
}

func (b *BackendBuilder) base(name, scope string, kind types.StoreKind, gen types.Generation) storeHandle {
	return storeHandle{
		ref:     types.StoreRef{UniverseID: b.universeID, Name: name, Scope: scope, Kind: kind},
		gen:     gen,
		backend: b.backend,
		flags:   b.flags,
		now:     time.Now,
	}
}

func (b *BackendBuilder) NewLegacy() ports.Handle {
	return &legacyStore{b.base("", types.LegacyScope, types.KindLegacy, types.GenerationV1)}
}

func (b *BackendBuilder) NewStandard(key types.StoreKey, gen types.Generation, allScopes bool) ports.Handle {
	h := b.base(key.Name, key.Scope, types.KindStandard, gen)
	if gen == types.GenerationV2 {
		h.allScopes = allScopes
		return &standardStoreV2{h}
	}
	return &standardStore{h}
}

func (b *BackendBuilder) NewOrdered(key types.StoreKey) ports.OrderedHandle {
	return &orderedStore{b.base(key.Name, key.Scope, types.KindOrdered, types.GenerationV1)}
}

// --------------------------------------------------------------------------
// Shared implementation
// --------------------------------------------------------------------------

type storeHandle struct {
	ref       types.StoreRef
	gen       types.Generation
	allScopes bool
	backend   ports.DataBackend
	flags     *flags.Provider
	now       func() time.Time
}

func (h *storeHandle) Name() string                 { return h.ref.Name }
func (h *storeHandle) Scope() string                { return h.ref.Scope }
func (h *storeHandle) Kind() types.StoreKind        { return h.ref.Kind }
func (h *storeHandle) Generation() types.Generation { return h.gen }

// fullKey validates key and returns it with the handle's scope applied. An
// all-scopes handle expects keys that already carry their scope.
func (h *storeHandle) fullKey(key string) (string, error) {
	if key == "" {
		return "", types.Err(types.ErrInvalidArgument, nil, "key name can't be empty")
	}
	limit := h.flags.GetInt(IntKeyLengthLimit)
	if limit <= 0 {
		limit = DefaultKeyLengthLimit
	}
	if int64(len(key)) > limit {
		return "", types.Err(types.ErrInvalidArgument, nil, "key name is too long")
	}
	if h.allScopes {
		if _, _, ok := types.SplitScopedKey(key); !ok {
			return "", types.Err(types.ErrInvalidArgument, nil, "key %q must be of the form scope/key when AllScopes is set", key)
		}
		return key, nil
	}
	return types.ScopedKey(h.ref.Scope, key), nil
}

func (h *storeHandle) load(ctx context.Context, key string) (*types.Entry, int64, error) {
	e, ver, err := h.backend.Load(ctx, h.ref, key)
	if err != nil {
		return nil, 0, types.Err(types.ErrDataStoreAccess, err, "")
	}
	return e, ver, nil
}

// update runs a read-modify-write loop. mutate receives the current entry (nil
// when absent) and returns the value to store, or skip=true to leave it as is.
func (h *storeHandle) update(ctx context.Context, key string, mutate func(cur *types.Entry) (v any, skip bool, err error)) (any, error) {
	full, err := h.fullKey(key)
	if err != nil {
		return nil, err
	}
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		cur, ver, err := h.load(ctx, full)
		if err != nil {
			return nil, err
		}
		v, skip, err := mutate(cur)
		if err != nil || skip {
			return nil, err
		}
		data, compressed, err := encodeValue(v, h.flags.GetInt(IntCompressThreshold))
		if err != nil {
			return nil, types.Err(types.ErrInvalidArgument, err, "")
		}
		now := h.now().UnixMilli()
		next := types.Entry{Value: data, Compressed: compressed, CreatedAt: now, UpdatedAt: now}
		if cur != nil {
			next.CreatedAt = cur.CreatedAt
		}
		ok, err := h.backend.UpsertCAS(ctx, h.ref, full, ver, next)
		if err != nil {
			return nil, types.Err(types.ErrDataStoreAccess, err, "")
		}
		if ok {
			return v, nil
		}
	}
	return nil, types.Err(types.ErrPrecondition, nil, "key %q is being written concurrently, gave up after %d attempts", key, maxCASAttempts)
}

func (h *storeHandle) get(ctx context.Context, key string) (any, *types.Entry, error) {
	full, err := h.fullKey(key)
	if err != nil {
		return nil, nil, err
	}
	e, _, err := h.load(ctx, full)
	if err != nil || e == nil {
		return nil, nil, err
	}
	var v any
	if err := decodeInto(e.Value, e.Compressed, &v); err != nil {
		return nil, nil, types.Err(types.ErrDataStoreAccess, err, "")
	}
	return v, e, nil
}

func (h *storeHandle) GetAsync(ctx context.Context, key string) (any, error) {
	v, _, err := h.get(ctx, key)
	return v, err
}

func (h *storeHandle) SetAsync(ctx context.Context, key string, value any) error {
	_, err := h.update(ctx, key, func(*types.Entry) (any, bool, error) {
		return value, false, nil
	})
	return err
}

func (h *storeHandle) UpdateAsync(ctx context.Context, key string, fn func(old any) any) (any, error) {
	return h.update(ctx, key, func(cur *types.Entry) (any, bool, error) {
		var old any
		if cur != nil {
			if err := decodeInto(cur.Value, cur.Compressed, &old); err != nil {
				return nil, false, types.Err(types.ErrDataStoreAccess, err, "")
			}
		}
		next := fn(old)
		return next, next == nil, nil
	})
}

// IncrementAsync adds delta to the integer stored at key; an absent key counts
// as 0. Non-integer values and sums outside the int64 range are rejected with
// types.ErrInvalidArgument.
func (h *storeHandle) IncrementAsync(ctx context.Context, key string, delta int64) (int64, error) {
	v, err := h.update(ctx, key, func(cur *types.Entry) (any, bool, error) {
		var old int64
		if cur != nil {
			n, err := decodeInt(cur.Value, cur.Compressed)
			if err != nil {
				return nil, false, types.Err(types.ErrInvalidArgument, err, "cannot increment key %q", key)
			}
			old = n
		}
		sum, ok := addInt64(old, delta)
		if !ok {
			return nil, false, types.Err(types.ErrInvalidArgument, nil, "incrementing key %q by %d overflows", key, delta)
		}
		return sum, false, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// remove deletes key and returns the entry it held, or nil when absent.
func (h *storeHandle) remove(ctx context.Context, key string) (*types.Entry, error) {
	full, err := h.fullKey(key)
	if err != nil {
		return nil, err
	}
	e, err := h.backend.Delete(ctx, h.ref, full)
	if err != nil {
		return nil, types.Err(types.ErrDataStoreAccess, err, "")
	}
	return e, nil
}

func (h *storeHandle) RemoveAsync(ctx context.Context, key string) (any, error) {
	e, err := h.remove(ctx, key)
	if err != nil || e == nil {
		return nil, err
	}
	var v any
	if err := decodeInto(e.Value, e.Compressed, &v); err != nil {
		return nil, types.Err(types.ErrDataStoreAccess, err, "")
	}
	return v, nil
}

// --------------------------------------------------------------------------
// Handle kinds
// --------------------------------------------------------------------------

// legacyStore is the default store; it always writes under types.LegacyScope.
type legacyStore struct{ storeHandle }

type standardStore struct{ storeHandle }

type standardStoreV2 struct{ storeHandle }

// GetWithInfoAsync returns the value and its key metadata, or (nil, nil, nil)
// when the key does not exist.
func (h *standardStoreV2) GetWithInfoAsync(ctx context.Context, key string) (any, *types.KeyInfo, error) {
	v, e, err := h.get(ctx, key)
	if err != nil || e == nil {
		return nil, nil, err
	}
	info := e.KeyInfo()
	return v, &info, nil
}

// AllScopes reports whether keys are addressed as scope/key.
func (h *standardStoreV2) AllScopes() bool { return h.allScopes }

// orderedStore keeps integer values.
type orderedStore struct{ h storeHandle }

func (o *orderedStore) Name() string  { return o.h.Name() }
func (o *orderedStore) Scope() string { return o.h.Scope() }

func (o *orderedStore) GetAsync(ctx context.Context, key string) (int64, bool, error) {
	full, err := o.h.fullKey(key)
	if err != nil {
		return 0, false, err
	}
	e, _, err := o.h.load(ctx, full)
	if err != nil || e == nil {
		return 0, false, err
	}
	return o.decode(key, e)
}

func (o *orderedStore) decode(key string, e *types.Entry) (int64, bool, error) {
	n, err := decodeInt(e.Value, e.Compressed)
	if err != nil {
		return 0, false, types.Err(types.ErrDataStoreAccess, err, "ordered value for %q is not an integer", key)
	}
	return n, true, nil
}

func (o *orderedStore) SetAsync(ctx context.Context, key string, value int64) error {
	return o.h.SetAsync(ctx, key, value)
}

func (o *orderedStore) IncrementAsync(ctx context.Context, key string, delta int64) (int64, error) {
	return o.h.IncrementAsync(ctx, key, delta)
}

func (o *orderedStore) RemoveAsync(ctx context.Context, key string) (int64, bool, error) {
	e, err := o.h.remove(ctx, key)
	if err != nil || e == nil {
		return 0, false, err
	}
	return o.decode(key, e)
}
