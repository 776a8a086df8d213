package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"reelsync/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   ErrorCode
		wantStatus int
	}{
		{"room not found", domain.ErrRoomNotFound, CodeNotFound, http.StatusNotFound},
		{"viewer not found", domain.ErrViewerNotFound, CodeNotFound, http.StatusNotFound},
		{"permission denied", domain.ErrPermissionDenied, CodePermissionDenied, http.StatusForbidden},
		{"validation", domain.ErrValidation, CodeValidation, http.StatusBadRequest},
		{"cooldown", &domain.CooldownError{Action: "beep", Remaining: 0}, CodeCooldown, http.StatusTooManyRequests},
		{"conflict", domain.ErrConflict, CodeConflict, http.StatusConflict},
		{"unknown", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := FromDomain(tt.err)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantStatus, appErr.HTTPStatus)
			assert.ErrorIs(t, appErr, tt.err)
		})
	}
}

func TestFromDomain_WrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("loading room: %w", domain.ErrRoomNotFound)

	appErr := FromDomain(wrapped)

	assert.Equal(t, CodeNotFound, appErr.Code)
}

func TestFromDomain_InternalNeverLeaksCause(t *testing.T) {
	appErr := FromDomain(errors.New("redis: connection refused at 10.0.0.3"))

	assert.Equal(t, "internal error", appErr.Message)
}

func TestGetAppError(t *testing.T) {
	appErr := FromDomain(domain.ErrValidation)
	chained := fmt.Errorf("handling command: %w", appErr)

	got := GetAppError(chained)
	require.NotNil(t, got)
	assert.Equal(t, CodeValidation, got.Code)

	assert.Nil(t, GetAppError(errors.New("plain")))
}
