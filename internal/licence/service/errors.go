package service

import (
	"errors"
	"fmt"

	dErrors "licences/pkg/domain-errors"
	"licences/pkg/platform/sentinel"
)

// translate maps store sentinels to domain errors. Errors that already carry
// a domain code pass through untouched.
func (s *Service) translate(err error, licenceID int64) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, fmt.Sprintf("licence %d not found", licenceID))
	case errors.Is(err, sentinel.ErrConflict):
		s.metrics.IncConflict()
		return dErrors.Wrap(err, dErrors.CodeConflict,
			fmt.Sprintf("licence %d was changed by another user, reload and try again", licenceID))
	case errors.Is(err, sentinel.ErrInvalidInput):
		return dErrors.Wrap(err, dErrors.CodeBadRequest, err.Error())
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "licence store unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "licence store failure")
	}
}
