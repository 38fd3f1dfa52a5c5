package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   ErrorResponse
	}{
		{
			name:   "app error",
			err:    NewNotFoundMessage("Application not found"),
			status: http.StatusNotFound,
			want:   ErrorResponse{Error: "Application not found", Code: CodeNotFound},
		},
		{
			name:   "wrapped app error",
			err:    fmt.Errorf("lookup: %w", NewValidationError("Missing required fields: gender")),
			status: http.StatusBadRequest,
			want:   ErrorResponse{Error: "Missing required fields: gender", Code: CodeValidation},
		},
		{
			name:   "internal with cause",
			err:    NewInternalError(errors.New("connection reset")),
			status: http.StatusInternalServerError,
			want:   ErrorResponse{Error: "Internal server error", Code: CodeInternal, Details: "connection reset"},
		},
		{
			name:   "conflict shows cause",
			err:    NewConflictError("Duplicate number", errors.New("unique violation")),
			status: http.StatusConflict,
			want:   ErrorResponse{Error: "Duplicate number", Code: CodeConflict, Details: "unique violation"},
		},
		{
			name:   "plain error",
			err:    errors.New("plain"),
			status: http.StatusInternalServerError,
			want:   ErrorResponse{Error: "plain"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return RespondWithError(c, tt.status, tt.err)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.status, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			var got ErrorResponse
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewConflictError("duplicate", nil))
	assert.True(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(errors.New("x"), CodeConflict))
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewValidationError("bad"), http.StatusBadRequest},
		{NewUnauthorizedError("who"), http.StatusUnauthorized},
		{fmt.Errorf("wrap: %w", NewForbiddenError("no")), http.StatusForbidden},
		{NewNotFoundMessage("gone"), http.StatusNotFound},
		{NewConflictError("dup", nil), http.StatusConflict},
		{&AppError{Code: "SOMETHING_ELSE"}, http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.err), tt.err.Error())
	}
	assert.Equal(t, "dup: cause", NewConflictError("dup", errors.New("cause")).Error())
}
