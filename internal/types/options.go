package types

// ExperimentalV2 is the experimental feature key a caller sets to opt into the
// V2 store API.
const ExperimentalV2 = "v2"

// DataStoreOptions carries per call toggles for GetStore. It is never mutated
// by the service once passed in.
type DataStoreOptions struct {
	// AllScopes lets a V2 handle address keys across every scope. Keys must then
	// be written as "scope/key".
	AllScopes bool

	experimental map[string]any
}

func NewDataStoreOptions() *DataStoreOptions {
	return &DataStoreOptions{experimental: map[string]any{}}
}

// SetExperimentalFeatures replaces the experimental feature set.
func (o *DataStoreOptions) SetExperimentalFeatures(features map[string]any) {
	o.experimental = make(map[string]any, len(features))
	for k, v := range features {
		o.experimental[k] = v
	}
}

// GetExperimentalFeatures returns a copy of the experimental feature set.
func (o *DataStoreOptions) GetExperimentalFeatures() map[string]any {
	out := make(map[string]any, len(o.experimental))
	for k, v := range o.experimental {
		out[k] = v
	}
	return out
}

// RequestsV2 reports whether the options carry an explicit boolean v2 = true.
func (o *DataStoreOptions) RequestsV2() bool {
	if o == nil {
		return false
	}
	v, ok := o.experimental[ExperimentalV2].(bool)
	return ok && v
}
