// Package models contains the persisted entities, workflow states and API error types.
package models

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried in ErrorResponse.Code.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
)

var codeStatus = map[string]int{
	CodeNotFound:     http.StatusNotFound,
	CodeValidation:   http.StatusBadRequest,
	CodeUnauthorized: http.StatusUnauthorized,
	CodeForbidden:    http.StatusForbidden,
	CodeConflict:     http.StatusConflict,
	CodeInternal:     http.StatusInternalServerError,
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError is an error with a client-facing Message. Err, when set, is
// reported as details.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error { return e.Err }

// Status is the HTTP status for the error's code.
func (e *AppError) Status() int {
	if s, ok := codeStatus[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func appError(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Err: cause}
}

// NewNotFoundMessage reports a missing record with a client-facing message.
func NewNotFoundMessage(message string) *AppError {
	return appError(CodeNotFound, message, nil)
}

func NewValidationError(message string) *AppError {
	return appError(CodeValidation, message, nil)
}

func NewUnauthorizedError(message string) *AppError {
	return appError(CodeUnauthorized, message, nil)
}

func NewForbiddenError(message string) *AppError {
	return appError(CodeForbidden, message, nil)
}

// NewConflictError reports a uniqueness collision. Callers may retry.
func NewConflictError(message string, err error) *AppError {
	return appError(CodeConflict, message, err)
}

func NewInternalError(err error) *AppError {
	return appError(CodeInternal, "Internal server error", err)
}

// HasCode reports whether err wraps an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// StatusOf maps err to an HTTP status; anything but an AppError is a 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status()
	}
	return http.StatusInternalServerError
}

// RespondWithError writes err as an ErrorResponse with the given status.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	body := ErrorResponse{Error: err.Error()}

	var appErr *AppError
	if errors.As(err, &appErr) {
		body = ErrorResponse{Error: appErr.Message, Code: appErr.Code}
		if appErr.Err != nil {
			body.Details = appErr.Err.Error()
		}
	}
	return c.Status(status).JSON(body)
}
