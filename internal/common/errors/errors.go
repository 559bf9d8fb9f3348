// Package errors provides standardized error handling for the HTTP API and BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidation          ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidSearchParams ErrorCode = "INVALID_SEARCH_PARAMS"
	ErrCodeResourceNotFound    ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeRateLimitExceeded   ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeAuthentication      ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"

	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodePlacesAPIFailed ErrorCode = "PLACES_API_FAILED"
	ErrCodeTimeout         ErrorCode = "TIMEOUT_ERROR"

	ErrCodeWebSearchTimeout  ErrorCode = "WEB_SEARCH_TIMEOUT"
	ErrCodeLLMTimeout        ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMAnalysisFailed ErrorCode = "LLM_ANALYSIS_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeSearchQueryFailed        ErrorCode = "SEARCH_QUERY_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Service returns the upstream service name recorded on external API errors.
func (e *StandardError) Service() string {
	if e.Metadata == nil {
		return ""
	}
	s, _ := e.Metadata["service"].(string)
	return s
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError is returned for malformed client input.
func NewValidationError(message string) *StandardError {
	if message == "" {
		message = "Validation failed"
	}
	return newError(ErrCodeValidation, message, "", false)
}

// NewInvalidSearchParamsError wraps a search parameter validation failure.
func NewInvalidSearchParamsError(details string) *StandardError {
	return newError(ErrCodeInvalidSearchParams, "Invalid search parameters: "+details, details, false)
}

// NewNotFoundError is returned when a requested resource does not exist.
func NewNotFoundError(message string) *StandardError {
	if message == "" {
		message = "Resource not found"
	}
	return newError(ErrCodeResourceNotFound, message, "", false)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	err := newError(ErrCodeResourceNotFound, fmt.Sprintf("Resource not found in %s", service), details, false)
	err.Metadata = map[string]interface{}{"service": service}
	return err
}

// NewRateLimitError is returned when a daily usage limit is enforced.
func NewRateLimitError(message string) *StandardError {
	if message == "" {
		message = "Rate limit exceeded"
	}
	return newError(ErrCodeRateLimitExceeded, message, "", false)
}

func NewAuthenticationError(details string) *StandardError {
	return newError(ErrCodeAuthentication, "Authentication failed", details, false)
}

// NewExternalAPIError reports a failed upstream call with a client-safe message.
func NewExternalAPIError(service, message string) *StandardError {
	if message == "" {
		message = "External API error"
	}
	err := newError(ErrCodeExternalService, message, "", true)
	err.Metadata = map[string]interface{}{"service": service}
	return err
}

// NewExternalServiceError wraps an underlying upstream error.
func NewExternalServiceError(service string, err error) *StandardError {
	e := newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true)
	e.Metadata = map[string]interface{}{"service": service}
	e.cause = err
	return e
}

func NewPlacesAPIError(message string, err error) *StandardError {
	e := NewExternalAPIError("Google Places", message)
	e.Code = ErrCodePlacesAPIFailed
	if err != nil {
		e.Details = err.Error()
		e.cause = err
	}
	return e
}

func NewTimeoutError(service string, err error) *StandardError {
	e := newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
	e.cause = err
	return e
}

func NewWebSearchTimeoutError() *StandardError {
	return newError(ErrCodeWebSearchTimeout, "Web search API timeout", "", true)
}

func NewLLMTimeoutError() *StandardError {
	e := newError(ErrCodeLLMTimeout, "LLM call timed out", "", true)
	e.Metadata = map[string]interface{}{"service": "Gemini"}
	return e
}

func NewLLMAnalysisFailedError(message string, err error) *StandardError {
	e := NewExternalAPIError("Gemini", message)
	e.Code = ErrCodeLLMAnalysisFailed
	if err != nil {
		e.Details = err.Error()
		e.cause = err
	}
	return e
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	e := newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
	e.cause = err
	return e
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	e := newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
	e.cause = err
	return e
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	e := newError(ErrCodeSearchQueryFailed, "Lead archive query failed",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
	e.cause = err
	return e
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	e := newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
	e.cause = err
	return e
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	e := newError(ErrCodeInternal, "Internal server error", details, false)
	e.cause = err
	return e
}

// ==========================
// 4. HTTP Mapping
// ==========================

var httpStatusByCode = map[ErrorCode]int{
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeInvalidSearchParams: http.StatusBadRequest,
	ErrCodeResourceNotFound:    http.StatusNotFound,
	ErrCodeRateLimitExceeded:   http.StatusTooManyRequests,
	ErrCodeAuthentication:      http.StatusUnauthorized,
	ErrCodeExternalService:     http.StatusBadGateway,
	ErrCodePlacesAPIFailed:     http.StatusBadGateway,
	ErrCodeLLMAnalysisFailed:   http.StatusBadGateway,
	ErrCodeLLMTimeout:          http.StatusBadGateway,
	ErrCodeWebSearchTimeout:    http.StatusBadGateway,
	ErrCodeTimeout:             http.StatusGatewayTimeout,
}

// AsStandardError finds the first StandardError in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HTTPStatus maps an error chain to an HTTP status code. Unknown errors are 500.
func HTTPStatus(err error) int {
	if stdErr, ok := AsStandardError(err); ok {
		if status, exists := httpStatusByCode[stdErr.Code]; exists {
			return status
		}
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message that is safe to show to API clients.
func PublicMessage(err error) string {
	if stdErr, ok := AsStandardError(err); ok && HTTPStatus(err) != http.StatusInternalServerError {
		return stdErr.Message
	}
	return "Internal server error"
}

// IsNotFound reports whether err carries RESOURCE_NOT_FOUND.
func IsNotFound(err error) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == ErrCodeResourceNotFound
}

// IsValidation reports whether err is a client input error.
func IsValidation(err error) bool {
	stdErr, ok := AsStandardError(err)
	return ok && (stdErr.Code == ErrCodeValidation || stdErr.Code == ErrCodeInvalidSearchParams)
}

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeValidation:               "INVALID_INPUT",
	ErrCodeInvalidSearchParams:      "INVALID_SEARCH_PARAMS",
	ErrCodeResourceNotFound:         "LEAD_NOT_FOUND",
	ErrCodeRateLimitExceeded:        "RATE_LIMIT_EXCEEDED",
	ErrCodeExternalService:          "EXTERNAL_SERVICE_ERROR",
	ErrCodePlacesAPIFailed:          "PLACES_API_FAILED",
	ErrCodeWebSearchTimeout:         "WEB_SEARCH_TIMEOUT",
	ErrCodeLLMTimeout:               "LLM_TIMEOUT",
	ErrCodeLLMAnalysisFailed:        "LLM_ANALYSIS_FAILED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeSearchQueryFailed:        "SEARCH_QUERY_FAILED",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeExternalService,
		ErrCodePlacesAPIFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeTimeout,
		ErrCodeWebSearchTimeout,
		ErrCodeLLMAnalysisFailed:
		return 2

	case ErrCodeLLMTimeout:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	if svc := stdErr.Service(); svc != "" {
		vars["service"] = svc
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 6. Utility Functions
// ==========================

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "LLM"):
		return "AI"
	case strings.Contains(codeStr, "PLACES") || strings.Contains(codeStr, "EXTERNAL") || strings.Contains(codeStr, "WEB_SEARCH"):
		return "EXTERNAL"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "RATE_LIMIT"):
		return "USAGE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	default:
		return "OTHER"
	}
}
