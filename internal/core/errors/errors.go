package errors

const (
	HttpInternalError        = "internal_error"
	HttpInvalidFilterError   = "invalid_filter"
	HttpNotYetGeneratedError = "aggregates_not_yet_generated"
	HttpUnauthorizedError    = "invalid_token"
)

// ErrorResponse is the error response body for query errors.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
