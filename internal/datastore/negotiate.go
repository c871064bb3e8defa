package datastore

import "dsclient/internal/types"

// resolveGeneration picks the API generation for a new standard handle.
//
// With the V2 flag off, options must be nil and the result is V1. With the flag
// on, options that explicitly set the experimental "v2" feature to true select
// V2; options without that opt-in are rejected, naming their type. Nil options
// stay on V1: turning the flag on does not upgrade callers that never asked.
func (s *Service) resolveGeneration(options *types.DataStoreOptions) (types.Generation, error) {
	if !s.flags.GetFlag(FlagV2Enabled) {
		if options != nil {
			return 0, types.Err(types.ErrInvalidArgument, nil, "options supplied but V2 API not enabled")
		}
		return types.GenerationV1, nil
	}
	if options == nil {
		return types.GenerationV1, nil
	}
	if options.RequestsV2() {
		return types.GenerationV2, nil
	}
	return 0, types.Err(types.ErrInvalidArgument, types.ErrV2NotRequested,
		"options instance of type %T did not request v2 API", options)
}
