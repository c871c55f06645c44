package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrBadRequest        = errors.New("bad request")
	ErrInternal          = errors.New("internal server error")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// Gamification and sync taxonomy.
	ErrUnknownActivityType = errors.New("unknown activity type")
	ErrMalformedBadge      = errors.New("malformed badge definition")
	ErrRemoteUnavailable   = errors.New("remote store unavailable")
	ErrRemoteRejected      = errors.New("remote store rejected batch")
	ErrSyncInProgress      = errors.New("sync already in progress")
	ErrPartialSync         = errors.New("partial sync failure")
)

// AppError is a custom error type that can hold an HTTP status code
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// PartialSyncError reports the entity kinds that failed during one sync pass.
// It matches ErrPartialSync with errors.Is.
type PartialSyncError struct {
	FailedKinds []string
	Causes      map[string]error
}

func (e *PartialSyncError) Error() string {
	return fmt.Sprintf("%s: %s", ErrPartialSync.Error(), strings.Join(e.FailedKinds, ", "))
}

func (e *PartialSyncError) Is(target error) bool {
	return target == ErrPartialSync
}

// MapErrorToStatus maps common errors to HTTP status codes
func MapErrorToStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrUnknownActivityType) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrSyncInProgress) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrRateLimitExceeded) {
		return http.StatusTooManyRequests
	}
	if errors.Is(err, ErrRemoteUnavailable) || errors.Is(err, ErrPartialSync) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, ErrRemoteRejected) {
		return http.StatusUnprocessableEntity
	}
	// Default to internal server error
	return http.StatusInternalServerError
}
