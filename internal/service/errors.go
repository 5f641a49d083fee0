package service

import (
	"errors"

	appErrors "github.com/tbsouza/academic-api/pkg/errors"
)

// translateCascadeError maps a failed creation cascade to the API error
// contract. The repository has already rolled the transaction back and
// typed uniqueness conflicts; anything else is surfaced as an internal
// error without storage detail.
func translateCascadeError(err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "creation failed")
}
