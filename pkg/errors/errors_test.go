package errors

import (
	"fmt"
	"net/http"
	"testing"

	"telequal/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorError(t *testing.T) {
	err := NewNotFoundError("session report")
	assert.Contains(t, err.Error(), "NOT_FOUND")
	assert.Contains(t, err.Error(), "session report not found")

	wrapped := WrapError(fmt.Errorf("boom"), ErrCodePersistence, "store write failed", http.StatusServiceUnavailable)
	assert.Contains(t, wrapped.Error(), "caused by: boom")
}

func TestWithContext(t *testing.T) {
	err := NewInvalidSampleError("negative packet count").
		WithContext("session_id", "S1").
		WithContext("participant_id", "P1")

	assert.Equal(t, "S1", err.Context["session_id"])
	assert.Equal(t, "P1", err.Context["participant_id"])
}

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   ErrorCode
		wantStatus int
	}{
		{"invalid sample", fmt.Errorf("%w: bad", domain.ErrInvalidSample), ErrCodeInvalidSample, http.StatusBadRequest},
		{"no data", domain.ErrNoData, ErrCodeNoData, http.StatusNotFound},
		{"report not found", domain.ErrReportNotFound, ErrCodeNotFound, http.StatusNotFound},
		{"timeout", domain.ErrTimeout, ErrCodeTimeout, http.StatusGatewayTimeout},
		{"persistence", fmt.Errorf("%w: redis down", domain.ErrPersistence), ErrCodePersistence, http.StatusServiceUnavailable},
		{"unknown", fmt.Errorf("weird"), ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := FromDomain(tt.err)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantStatus, appErr.HTTPStatus)
		})
	}
}

func TestGetAppError(t *testing.T) {
	inner := NewTimeoutError("aggregate query")
	wrapped := fmt.Errorf("handler: %w", inner)

	assert.True(t, IsAppError(wrapped))
	assert.Equal(t, ErrCodeTimeout, GetAppError(wrapped).Code)
	assert.Nil(t, GetAppError(nil))
}
