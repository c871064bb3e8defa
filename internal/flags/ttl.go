package flags

import (
	"sync"
	"time"
)

// TTL is a minimal in-process TTL cache. Lazy expiration on Get.
type TTL[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]entry[V]
	now  func() time.Time
}

type entry[V any] struct {
	val V
	exp time.Time
}

func NewTTL[K comparable, V any]() *TTL[K, V] {
	return &TTL[K, V]{data: make(map[K]entry[V]), now: time.Now}
}

// Get returns the value and true if found and not expired; otherwise zero value and false.
func (t *TTL[K, V]) Get(k K) (V, bool) {
	t.mu.RLock()
	e, ok := t.data[k]
	t.mu.RUnlock()
	if !ok || t.now().After(e.exp) {
		var zero V
		return zero, false
	}
	return e.val, true
}

func (t *TTL[K, V]) Set(k K, v V, ttl time.Duration) {
	t.mu.Lock()
	t.data[k] = entry[V]{val: v, exp: t.now().Add(ttl)}
	t.mu.Unlock()
}

// Delete drops k regardless of expiry.
func (t *TTL[K, V]) Delete(k K) {
	t.mu.Lock()
	delete(t.data, k)
	t.mu.Unlock()
}
