package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("bad"), http.StatusBadRequest},
		{"search params", NewInvalidSearchParamsError("industry too short"), http.StatusBadRequest},
		{"not found", NewNotFoundError(""), http.StatusNotFound},
		{"rate limit", NewRateLimitError(""), http.StatusTooManyRequests},
		{"external", NewExternalAPIError("Gemini", "Analysis failed"), http.StatusBadGateway},
		{"places", NewPlacesAPIError("Search failed", nil), http.StatusBadGateway},
		{"auth", NewAuthenticationError("missing token"), http.StatusUnauthorized},
		{"wrapped", fmt.Errorf("analyze: %w", NewNotFoundError("gone")), http.StatusNotFound},
		{"plain", stderrors.New("boom"), http.StatusInternalServerError},
		{"internal", NewInternalError(stderrors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestPublicMessage_HidesInternalDetails(t *testing.T) {
	assert.Equal(t, "Internal server error", PublicMessage(stderrors.New("pq: password authentication failed")))
	assert.Equal(t, "Failed to parse AI response", PublicMessage(NewLLMAnalysisFailedError("Failed to parse AI response", nil)))
}

func TestDefaultMessages(t *testing.T) {
	assert.Equal(t, "Validation failed", NewValidationError("").Message)
	assert.Equal(t, "Resource not found", NewNotFoundError("").Message)
	assert.Equal(t, "Rate limit exceeded", NewRateLimitError("").Message)
	assert.Equal(t, "External API error", NewExternalAPIError("Google Places", "").Message)
}

func TestExternalAPIError_Service(t *testing.T) {
	err := NewExternalAPIError("Google Places", "Search failed: OVER_QUERY_LIMIT")
	assert.Equal(t, "Google Places", err.Service())
	assert.True(t, err.Retryable)
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")
	err := NewExternalServiceError("redis", cause)
	assert.True(t, stderrors.Is(err, cause))
}

func TestConvertToBPMNError(t *testing.T) {
	t.Run("retryable places error", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewPlacesAPIError("Place details failed", stderrors.New("503")))
		assert.Equal(t, "PLACES_API_FAILED", bpmn.Code)
		assert.Equal(t, 3, bpmn.Retries)
		assert.Equal(t, "Google Places", bpmn.ErrorVariables["service"])
	})

	t.Run("non retryable not found", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewNotFoundError("Place not found"))
		assert.Equal(t, "LEAD_NOT_FOUND", bpmn.Code)
		assert.Equal(t, 0, bpmn.Retries)
		assert.False(t, bpmn.Retryable)
	})

	t.Run("llm timeout retries once", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewLLMTimeoutError())
		assert.Equal(t, "LLM_TIMEOUT", bpmn.Code)
		assert.Equal(t, 1, bpmn.Retries)
	})

	t.Run("unknown code falls back to raw code", func(t *testing.T) {
		bpmn := ConvertToBPMNError(&StandardError{Code: "SOMETHING_ELSE", Retryable: true})
		assert.Equal(t, "SOMETHING_ELSE", bpmn.Code)
		assert.Equal(t, 0, bpmn.Retries)
	})
}

func TestToErrorVariables(t *testing.T) {
	bpmn := ConvertToBPMNError(NewRateLimitError("Daily gemini limit reached"))
	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", vars["errorCode"])
	assert.Equal(t, "Daily gemini limit reached", vars["errorMessage"])
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", vars["originalErrorCode"])
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeLLMTimeout:           "AI",
		ErrCodePlacesAPIFailed:      "EXTERNAL",
		ErrCodeWebSearchTimeout:     "EXTERNAL",
		ErrCodeQueryExecutionFailed: "DATABASE",
		ErrCodeRateLimitExceeded:    "USAGE",
		ErrCodeInvalidSearchParams:  "VALIDATION",
		ErrCodeResourceNotFound:     "NOT_FOUND",
		ErrCodeInternal:             "OTHER",
	}
	for code, want := range tests {
		assert.Equal(t, want, GetErrorCategory(code), string(code))
	}
}

func TestNormalize(t *testing.T) {
	std := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, std.Code)
	assert.Equal(t, "boom", std.Details)

	orig := NewValidationError("x")
	assert.Same(t, orig, Normalize(fmt.Errorf("wrap: %w", orig)))
}
