package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/job-recommender/internal/pipeline"
	"github.com/jonathan/job-recommender/internal/schemas"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &ErrValidation{Field: "id", Message: "bad"}, http.StatusBadRequest},
		{"config", &pipeline.ConfigError{Message: "invalid preferences"}, http.StatusBadRequest},
		{"wrapped config", fmt.Errorf("recommend: %w", &pipeline.ConfigError{Message: "x"}), http.StatusBadRequest},
		{"schema", &schemas.ValidationError{Errors: []schemas.FieldError{{Field: "0", Message: "url is required"}}}, http.StatusBadRequest},
		{"not found", &ErrRunNotFound{ID: "abc"}, http.StatusNotFound},
		{"deadline", fmt.Errorf("scrape: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "validation error: top_n - must not be negative", (&ErrValidation{Field: "top_n", Message: "must not be negative"}).Error())
	assert.Equal(t, "run not found: abc", (&ErrRunNotFound{ID: "abc"}).Error())
}
