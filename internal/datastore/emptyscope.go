package datastore

import (
	"context"
	"dsclient/internal/types"
)

// GetDataFromEmptyScopeDataStore reads key from the store called name that was
// written without a scope.
//
// Deprecated: kept for migrating data written without a scope; it only works
// while the DataStoreLostDataFixEnable flag is on.
func (s *Service) GetDataFromEmptyScopeDataStore(ctx context.Context, name, key string) (any, error) {
	if !s.flags.GetFlag(FlagLostDataFixEnable) {
		return nil, types.Fail(types.ErrFeatureDisabled, "GetDataFromEmptyScopeDataStoreAsyncTemporary is not enabled")
	}
	if name == "" {
		return nil, types.Fail(types.ErrInvalidArgument, "DataStore name can't be empty string")
	}
	if int64(len(name)) > s.flags.GetInt(IntKeyLengthLimit) {
		return nil, types.Fail(types.ErrInvalidArgument, "DataStore name is too long")
	}
	h, err := s.getStandard(types.StoreKey{Name: name, Scope: ""}, types.GenerationV1, false)
	if err != nil {
		return nil, err
	}
	return h.GetAsync(ctx, key)
}
