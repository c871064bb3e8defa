package types

import (
	"fmt"
	"strings"
	"time"
)

// DefaultScope is used when the caller does not name a scope.
const DefaultScope = "global"

// LegacyScope is the scope the default (legacy) store writes under.
const LegacyScope = "u"

// StoreKey identifies a store by name and scope. The registry looks stores up
// by the composed form, so uniqueness is per composed key and not per field.
type StoreKey struct {
	Name  string
	Scope string
}

// Composed returns the registry lookup key.
func (k StoreKey) Composed() string {
	return fmt.Sprintf("%s-%s", k.Name, k.Scope)
}

type StoreKind int

const (
	KindLegacy StoreKind = iota
	KindStandard
	KindOrdered
)

var storeKindNames = map[StoreKind]string{
	KindLegacy:   "legacy",
	KindStandard: "standard",
	KindOrdered:  "ordered",
}

func (k StoreKind) String() string {
	if s, ok := storeKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Generation is the backend API generation a handle was created with. It is
// fixed for the lifetime of the handle.
type Generation int

const (
	GenerationV1 Generation = iota + 1
	GenerationV2
)

func (g Generation) String() string {
	switch g {
	case GenerationV1:
		return "v1"
	case GenerationV2:
		return "v2"
	default:
		return "unknown"
	}
}

// StoreRef is what a backend needs to address one store.
type StoreRef struct {
	UniverseID int64
	Name       string
	Scope      string
	Kind       StoreKind
}

// Entry is a single persisted value. Version is maintained by the backend.
type Entry struct {
	Value      []byte `dynamodbav:"value" json:"value"`
	Compressed bool   `dynamodbav:"compressed" json:"compressed,omitempty"`
	CreatedAt  int64  `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt  int64  `dynamodbav:"updated_at" json:"updated_at"`
	Version    int64  `dynamodbav:"ver" json:"-"`
}

// KeyInfo is returned alongside values by V2 handles.
type KeyInfo struct {
	Version     int64
	CreatedTime time.Time
	UpdatedTime time.Time
}

func (e Entry) KeyInfo() KeyInfo {
	return KeyInfo{
		Version:     e.Version,
		CreatedTime: time.UnixMilli(e.CreatedAt),
		UpdatedTime: time.UnixMilli(e.UpdatedAt),
	}
}

// StoreInfo describes a store discovered by listing.
type StoreInfo struct {
	Name        string `json:"name" dynamodbav:"name"`
	CreatedTime int64  `json:"createdTime" dynamodbav:"created_time"`
	UpdatedTime int64  `json:"updatedTime" dynamodbav:"updated_time"`
}

// ListTarget is the request descriptor produced by a URL builder. Backends
// that do not speak HTTP use UniverseID, Prefix and PageSize directly.
type ListTarget struct {
	URL        string
	UniverseID int64
	Prefix     string
	PageSize   int
}

// ListingResult is one fetched page. An empty NextCursor means there are no
// more pages.
type ListingResult struct {
	Stores     []StoreInfo
	NextCursor string
}

// ScopedKey prefixes key with scope the same way for every handle kind.
func ScopedKey(scope, key string) string {
	if scope == "" {
		return key
	}
	return scope + "/" + key
}

// SplitScopedKey is the inverse of ScopedKey for keys that carry their scope.
func SplitScopedKey(key string) (scope, rest string, ok bool) {
	i := strings.IndexByte(key, '/')
	if i <= 0 || i == len(key)-1 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}
