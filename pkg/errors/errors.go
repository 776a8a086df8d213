package errors

import (
	"errors"
	"fmt"
	"net/http"

	"reelsync/internal/core/domain"
)

// ErrorCode identifies an error class on the wire (HTTP responses and the
// private error events on sockets).
type ErrorCode string

const (
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	CodeValidation       ErrorCode = "VALIDATION"
	CodeCooldown         ErrorCode = "COOLDOWN"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	CodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// AppError carries a wire code and HTTP status alongside the cause.
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// FromDomain maps the domain taxonomy onto wire codes. Unknown errors map
// to INTERNAL_ERROR so internals never leak.
func FromDomain(err error) *AppError {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrViewerNotFound):
		return &AppError{Code: CodeNotFound, Message: err.Error(), HTTPStatus: http.StatusNotFound, Cause: err}
	case errors.Is(err, domain.ErrPermissionDenied):
		return &AppError{Code: CodePermissionDenied, Message: err.Error(), HTTPStatus: http.StatusForbidden, Cause: err}
	case errors.Is(err, domain.ErrValidation):
		return &AppError{Code: CodeValidation, Message: err.Error(), HTTPStatus: http.StatusBadRequest, Cause: err}
	case errors.Is(err, domain.ErrCooldown):
		return &AppError{Code: CodeCooldown, Message: err.Error(), HTTPStatus: http.StatusTooManyRequests, Cause: err}
	case errors.Is(err, domain.ErrConflict):
		return &AppError{Code: CodeConflict, Message: "concurrent update, please retry", HTTPStatus: http.StatusConflict, Cause: err}
	default:
		return &AppError{Code: CodeInternal, Message: "internal error", HTTPStatus: http.StatusInternalServerError, Cause: err}
	}
}

// GetAppError extracts an AppError from an error chain, or nil.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
