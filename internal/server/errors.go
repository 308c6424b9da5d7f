package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mateo/storefront-builder/internal/build"
	"github.com/mateo/storefront-builder/internal/facts"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		factsNotFound *facts.TenantNotFoundError
		buildNotFound *build.TenantNotFoundError
		notRetryable  *build.NotRetryableError
		maxRetries    *build.MaxRetriesError
		badRequest    *ErrValidation
	)
	switch {
	case errors.As(err, &factsNotFound), errors.As(err, &buildNotFound):
		return http.StatusNotFound
	case errors.As(err, &notRetryable):
		return http.StatusConflict
	case errors.As(err, &maxRetries):
		return http.StatusTooManyRequests
	case errors.As(err, &badRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
