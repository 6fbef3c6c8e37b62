package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/vexsearch/vexdb/internal/guardrails"
	"github.com/vexsearch/vexdb/internal/status"
)

// MaxRequestBodySize is the maximum accepted request body (64MB), above the
// default wire message limit so oversized messages reach the wire checks.
const MaxRequestBodySize = 64 * 1024 * 1024

// APIError is an error with an HTTP status and a database error code.
type APIError struct {
	StatusCode int
	Code       status.Code
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// errorBody is the JSON shape of every error reply.
type errorBody struct {
	OK       int    `json:"ok"`
	Code     int32  `json:"code"`
	CodeName string `json:"codeName"`
	ErrMsg   string `json:"errmsg"`
}

func (e *APIError) body() errorBody {
	return errorBody{OK: 0, Code: int32(e.Code), CodeName: e.Code.String(), ErrMsg: e.Message}
}

// NewAPIError creates a new APIError.
func NewAPIError(statusCode int, code status.Code, message string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Message: message}
}

// ErrBadRequest returns a 400 error carrying code.
func ErrBadRequest(code status.Code, message string) *APIError {
	return NewAPIError(http.StatusBadRequest, code, message)
}

// ErrBadRequestf returns a 400 BadValue error with a formatted message.
func ErrBadRequestf(format string, args ...any) *APIError {
	return ErrBadRequest(status.BadValue, fmt.Sprintf(format, args...))
}

// ErrUnauthorized returns a 401 Unauthorized error.
func ErrUnauthorized(message string) *APIError {
	return NewAPIError(http.StatusUnauthorized, status.Unauthorized, message)
}

// ErrPayloadTooLarge returns a 413 Payload Too Large error.
func ErrPayloadTooLarge(message string) *APIError {
	return NewAPIError(http.StatusRequestEntityTooLarge, status.BSONObjectTooLarge, message)
}

// ErrUnsupportedEncoding returns a 415 error for unknown Content-Encoding.
func ErrUnsupportedEncoding(encoding string) *APIError {
	return NewAPIError(http.StatusUnsupportedMediaType, status.BadValue,
		"unsupported Content-Encoding "+encoding)
}

// ErrTooManyRequests returns a 429 error when no request slot is free.
func ErrTooManyRequests() *APIError {
	return NewAPIError(http.StatusTooManyRequests, status.InternalError,
		guardrails.ErrRequestLimitReached.Error())
}

// ErrTimeout returns a 503 error for requests that ran out of time.
func ErrTimeout() *APIError {
	return NewAPIError(http.StatusServiceUnavailable, status.MaxTimeMSExpired,
		"operation exceeded time limit")
}

// ErrInternalServer returns a 500 Internal Server Error.
func ErrInternalServer(message string) *APIError {
	return NewAPIError(http.StatusInternalServerError, status.InternalError, message)
}

// FromError maps an error from the parser or validator to an APIError.
// Coded errors are client errors; anything else is internal.
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return ErrPayloadTooLarge("request body exceeds 64MB limit")
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrTimeout()
	}
	var se *status.Error
	if errors.As(err, &se) {
		return ErrBadRequest(se.Code, status.Reason(err))
	}
	return ErrInternalServer(err.Error())
}
