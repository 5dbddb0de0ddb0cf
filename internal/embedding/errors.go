package embedding

import "fmt"

// EmbeddingError is a typed error returned by embedding providers.
type EmbeddingError struct {
	Code    int
	Message string
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding error (code=%d): %s", e.Code, e.Message)
}

// Error codes for embedding failures.
const (
	ErrCodeInvalidAPIKey  = 1001
	ErrCodeInvalidRequest = 1002
	ErrCodeNetworkError   = 1003
	ErrCodeRateLimited    = 1004
	ErrCodeServerError    = 1005
	ErrCodeTimeout        = 1006
	ErrCodeEmptyInput     = 1007
)

// NewEmbeddingError creates an EmbeddingError with the given code.
func NewEmbeddingError(code int, format string, args ...interface{}) *EmbeddingError {
	return &EmbeddingError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}
