package datastore

import (
	"context"
	"dsclient/internal/types"

	log "github.com/sirupsen/logrus"
)

const writeAccessDenied = "Cannot write to DataStore from studio if API access is not enabled. Enable it by going to the Game Settings page."

// checkWriteAccess asks the capability probe whether API access is enabled.
// A denial is not an error: report receives the explanation and false is
// returned. A probe that cannot answer counts as a denial.
func (s *Service) checkWriteAccess(ctx context.Context, report func(reason string)) bool {
	if s.probe == nil {
		if report != nil {
			report("API access cannot be checked: no capability probe configured")
		}
		return false
	}
	enabled, err := s.probe.IsApiAccessEnabled(ctx)
	if err != nil {
		log.WithError(err).Warn("capability probe failed")
		if report != nil {
			report("API access check failed: " + err.Error())
		}
		return false
	}
	if !enabled {
		if report != nil {
			report(writeAccessDenied)
		}
		return false
	}
	return true
}

// CheckWriteAccess returns nil when privileged operations are permitted, or a
// *types.Failure of kind types.ErrCapabilityDenied explaining why not.
func (s *Service) CheckWriteAccess(ctx context.Context) error {
	var failure *types.Failure
	if s.checkWriteAccess(ctx, func(reason string) {
		failure = types.Fail(types.ErrCapabilityDenied, reason)
	}) {
		return nil
	}
	return failure
}
