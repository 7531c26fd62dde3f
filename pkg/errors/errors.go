package errors

import "fmt"

// Error codes
const (
	CodeAppError   = "APP_ERROR"
	CodeAPIError   = "API_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeCache      = "CACHE_ERROR"
	CodeResolution = "RESOLUTION_ERROR"
	CodeConnection = "CONNECTION_ERROR"
)

type AppError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewAppError(message, code string, statusCode int, context map[string]any) *AppError {
	return &AppError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

type APIError struct {
	*AppError
}

func NewAPIError(message string, statusCode int, context map[string]any) *APIError {
	return &APIError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context:    context,
		},
	}
}

type ValidationError struct {
	*AppError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*AppError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

// ResolutionError is a terminal channel-lookup failure ("channel not found").
// It is surfaced to the caller and never retried automatically.
type ResolutionError struct {
	*AppError
	Platform string
	Channel  string
}

func NewResolutionError(message, platform, channel string, cause error) *ResolutionError {
	return &ResolutionError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeResolution,
			StatusCode: 404,
			Context: map[string]any{
				"platform": platform,
				"channel":  channel,
			},
			Cause: cause,
		},
		Platform: platform,
		Channel:  channel,
	}
}

// ConnectionError reports a transport failure, including reconnect budget
// exhaustion. Attempts carries how many reconnects were tried.
type ConnectionError struct {
	*AppError
	Platform string
	Attempts int
}

func NewConnectionError(message, platform string, attempts int, cause error) *ConnectionError {
	return &ConnectionError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeConnection,
			StatusCode: 502,
			Context: map[string]any{
				"platform": platform,
				"attempts": attempts,
			},
			Cause: cause,
		},
		Platform: platform,
		Attempts: attempts,
	}
}
