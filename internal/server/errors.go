package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/job-recommender/internal/pipeline"
	"github.com/jonathan/job-recommender/internal/schemas"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrRunNotFound indicates no stored run has the requested ID
type ErrRunNotFound struct {
	ID string
}

func (e *ErrRunNotFound) Error() string {
	return fmt.Sprintf("run not found: %s", e.ID)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		configErr     *pipeline.ConfigError
		schemaErr     *schemas.ValidationError
		notFound      *ErrRunNotFound
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &configErr), errors.As(err, &schemaErr):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
