package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrPrecondition = errors.New("precondition failed")

	// ErrInvalidArgument covers malformed names/scopes and options that violate the
	// version negotiation contract.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrV2NotRequested is joined with ErrInvalidArgument when the V2 API is enabled
	// but the caller's options did not opt in.
	ErrV2NotRequested    = errors.New("options did not request v2 API")
	ErrPreconditionFatal = errors.New("fatal precondition")
	ErrCapabilityDenied  = errors.New("capability denied")
	ErrFeatureDisabled   = errors.New("feature disabled")

	ErrInvalidBackend  = errors.New("invalid backend")
	ErrDataStoreAccess = errors.New("data store read/write error")
)

func Err(typedError error, innerErr error, msgTemplate string, args ...any) error {
	if msgTemplate == "" {
		return errors.Join(typedError, innerErr)
	} else {
		return errors.Join(typedError, innerErr, fmt.Errorf(msgTemplate, args...))
	}
}

// Failure is an explained failure returned from the asynchronous operations
// (listing, capability checks, the empty scope accessor). Reason is the human
// readable explanation; Kind is one of the sentinels above.
type Failure struct {
	Kind   error
	Reason string
}

func Fail(kind error, reason string, args ...any) *Failure {
	if len(args) > 0 {
		reason = fmt.Sprintf(reason, args...)
	}
	return &Failure{Kind: kind, Reason: reason}
}

func (f *Failure) Error() string { return f.Reason }

func (f *Failure) Unwrap() error { return f.Kind }
