package datastore

import (
	"dsclient/internal/flags"
	"dsclient/internal/types"
)

// Validator rejects malformed store names and scopes with types.ErrInvalidArgument.
type Validator func(name, scope string) error

// LengthValidator requires a non-empty name and scope, each no longer than the
// DataStoreKeyLengthLimit variable.
func LengthValidator(p *flags.Provider) Validator {
	return func(name, scope string) error {
		limit := int(p.GetInt(IntKeyLengthLimit))
		switch {
		case name == "":
			return types.Err(types.ErrInvalidArgument, nil, "DataStore name can't be empty string")
		case len(name) > limit:
			return types.Err(types.ErrInvalidArgument, nil, "DataStore name is too long")
		case scope == "":
			return types.Err(types.ErrInvalidArgument, nil, "DataStore scope can't be empty string")
		case len(scope) > limit:
			return types.Err(types.ErrInvalidArgument, nil, "DataStore scope is too long")
		}
		return nil
	}
}
