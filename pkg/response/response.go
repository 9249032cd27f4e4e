package response

import (
	"net/http"

	"github.com/fatflowers/patron/pkg/apperror"
)

// Code is the public error code. It never carries internal detail.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeInternal     Code = "internal_error"
)

// APIResponse is the envelope for every JSON endpoint:
// {ok: true, data} on success and {ok: false, error} on failure.
type APIResponse[T any] struct {
	OK    bool `json:"ok"`
	Data  T    `json:"data,omitempty"`
	Error Code `json:"error,omitempty"`
}

func OK[T any](data T) *APIResponse[T] {
	return &APIResponse[T]{OK: true, Data: data}
}

func Error(code Code) *APIResponse[any] {
	return &APIResponse[any]{OK: false, Error: code}
}

// FromError maps err to an HTTP status and envelope. Validation errors are
// the caller's fault; everything else is internal.
func FromError(err error) (int, *APIResponse[any]) {
	if apperror.IsValidation(err) {
		return http.StatusBadRequest, Error(CodeBadRequest)
	}
	return http.StatusInternalServerError, Error(CodeInternal)
}
