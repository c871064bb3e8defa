package redis

import (
	"context"
	"dsclient/internal/types"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const (
	dataKeyNameTemplate  = "_dsclient_data:%d:%s:%q:%s"
	indexKeyNameTemplate = "_dsclient_stores:%d"

	defaultScanCount = 50
)

// DataStore implements ports.DataBackend with one hash per entry. Standard
// stores are also recorded in a per-universe index hash (store name to a JSON
// types.StoreInfo) that FetchPage scans.
type DataStore struct {
	cli *redis.Client
}

func NewDataStore(cli *redis.Client) *DataStore {
	return &DataStore{cli: cli}
}

// Load returns the entry and its version, or (nil,0,nil) when absent.
func (s *DataStore) Load(ctx context.Context, ref types.StoreRef, key string) (*types.Entry, int64, error) {
	e, err := loadEntry(ctx, s.cli, getDataKeyName(ref, key))
	if err != nil || e == nil {
		return nil, 0, err
	}
	return e, e.Version, nil
}

// UpsertCAS writes next only if the stored version still equals prevVersion.
// On create (prevVersion==0), the entry must not exist.
func (s *DataStore) UpsertCAS(ctx context.Context, ref types.StoreRef, key string, prevVersion int64, next types.Entry) (bool, error) {
	dataKey := getDataKeyName(ref, key)
	indexKey := getIndexKeyName(ref.UniverseID)
	committed := false

	err := s.cli.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := loadEntry(ctx, tx, dataKey)
		if err != nil {
			return err
		}
		if (cur == nil && prevVersion != 0) || (cur != nil && cur.Version != prevVersion) {
			return nil // version mismatch
		}

		var info *types.StoreInfo
		if ref.Kind == types.KindStandard {
			info, err = indexedStore(ctx, tx, indexKey, ref.Name)
			if err != nil {
				return err
			}
			if info == nil {
				info = &types.StoreInfo{Name: ref.Name, CreatedTime: next.CreatedAt}
			}
			info.UpdatedTime = next.UpdatedAt
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, dataKey, map[string]any{
				"value":      next.Value,
				"compressed": strconv.FormatBool(next.Compressed),
				"created_at": next.CreatedAt,
				"updated_at": next.UpdatedAt,
				"ver":        prevVersion + 1,
			})
			if info != nil {
				b, err := json.Marshal(info)
				if err != nil {
					return err
				}
				pipe.HSet(ctx, indexKey, ref.Name, string(b))
			}
			return nil
		})
		if err != nil {
			return err
		}
		committed = true
		return nil
	}, dataKey, indexKey)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil // raced with another writer
	}
	if err != nil {
		return false, err
	}
	return committed, nil
}

// Delete removes the entry and returns it, or nil if it did not exist.
func (s *DataStore) Delete(ctx context.Context, ref types.StoreRef, key string) (*types.Entry, error) {
	dataKey := getDataKeyName(ref, key)
	var removed *types.Entry
	err := s.cli.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := loadEntry(ctx, tx, dataKey)
		if err != nil || cur == nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, dataKey)
			return nil
		})
		if err == nil {
			removed = cur
		}
		return err
	}, dataKey)
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// FetchPage implements ports.PageFetcher by scanning the store index. The
// cursor is the HSCAN cursor; "0" from the server ends the listing.
func (s *DataStore) FetchPage(ctx context.Context, target types.ListTarget, cursor string) (types.ListingResult, error) {
	var cur uint64
	if cursor != "" {
		var err error
		cur, err = strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			return types.ListingResult{}, types.Err(types.ErrInvalidArgument, err, "invalid cursor %q", cursor)
		}
	}
	count := int64(target.PageSize)
	if count <= 0 {
		count = defaultScanCount
	}

	kv, next, err := s.cli.HScan(ctx, getIndexKeyName(target.UniverseID), cur, escapeGlob(target.Prefix)+"*", count).Result()
	if err != nil {
		return types.ListingResult{}, err
	}
	stores := make([]types.StoreInfo, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		var info types.StoreInfo
		if err := json.Unmarshal([]byte(kv[i+1]), &info); err != nil {
			return types.ListingResult{}, fmt.Errorf("invalid store index entry %q: %w", kv[i], err)
		}
		stores = append(stores, info)
	}
	sort.Slice(stores, func(i, j int) bool { return stores[i].Name < stores[j].Name })

	res := types.ListingResult{Stores: stores}
	if next != 0 {
		res.NextCursor = strconv.FormatUint(next, 10)
	}
	return res, nil
}

func loadEntry(ctx context.Context, cli redis.Cmdable, dataKey string) (*types.Entry, error) {
	m, err := cli.HGetAll(ctx, dataKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(m) == 0 {
		return nil, nil
	}
	ver, err := strconv.ParseInt(m["ver"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ver: %w", err)
	}
	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}
	updatedAt, err := strconv.ParseInt(m["updated_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at: %w", err)
	}
	compressed, _ := strconv.ParseBool(m["compressed"])
	return &types.Entry{
		Value:      []byte(m["value"]),
		Compressed: compressed,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
		Version:    ver,
	}, nil
}

func indexedStore(ctx context.Context, cli redis.Cmdable, indexKey, name string) (*types.StoreInfo, error) {
	raw, err := cli.HGet(ctx, indexKey, name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var info types.StoreInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, fmt.Errorf("invalid store index entry %q: %w", name, err)
	}
	return &info, nil
}

func getDataKeyName(ref types.StoreRef, key string) string {
	return fmt.Sprintf(dataKeyNameTemplate, ref.UniverseID, ref.Kind, ref.Name, key)
}

func getIndexKeyName(universeID int64) string {
	return fmt.Sprintf(indexKeyNameTemplate, universeID)
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
