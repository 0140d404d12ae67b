package http

import (
	"errors"

	"energypolicy/internal/datasets"
	apierrors "energypolicy/internal/errors"
	"energypolicy/internal/services"
)

// serviceError maps service sentinels to API errors. id names the dataset
// the request addressed, if any. Unknown errors pass through unchanged.
func serviceError(err error, id string) error {
	switch {
	case errors.Is(err, services.ErrDatasetNotFound):
		return apierrors.DatasetNotFound(id)
	case errors.Is(err, services.ErrCategoryNotFound):
		return apierrors.NotFoundError("category")
	case errors.Is(err, datasets.ErrInvalidEnvelope):
		return apierrors.ErrDataCorrupted.WithDetails(id)
	case errors.Is(err, services.ErrInvalidTableQuery):
		return apierrors.ErrValidation("query", err.Error())
	case errors.Is(err, services.ErrNotNumeric):
		return apierrors.ErrNotNumeric
	case errors.Is(err, services.ErrEmptyLabel):
		return apierrors.MissingParameter("s")
	case errors.Is(err, services.ErrInvalidDuration):
		return apierrors.ErrValidation("duration", "must not be negative")
	case errors.Is(err, services.ErrUnsupportedFormat):
		return apierrors.ErrUnsupportedFormat
	case errors.Is(err, services.ErrInvalidIdentifier):
		return apierrors.ErrValidation("id", "invalid dataset identifier")
	}
	return err
}
