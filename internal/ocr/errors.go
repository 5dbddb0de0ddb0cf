package ocr

import "fmt"

// OCRError remote OCR error type.
type OCRError struct {
	Code    int    // error code
	Message string // error message
}

// Error implements the error interface.
func (e OCRError) Error() string {
	return fmt.Sprintf("ocr error (code=%d): %s", e.Code, e.Message)
}

// Error codes.
const (
	ErrCodeInvalidAPIKey  = 1001 // invalid API key
	ErrCodeInvalidRequest = 1002 // invalid request
	ErrCodeNetworkError   = 1003 // network failure
	ErrCodeRateLimited    = 1004 // rate limit exceeded
	ErrCodeServerError    = 1005 // backend error
	ErrCodeTimeout        = 1006 // request timed out
	ErrCodeEmptyInput     = 1007 // empty document payload
)

// NewOCRError creates a new OCR error.
func NewOCRError(code int, message string) OCRError {
	return OCRError{Code: code, Message: message}
}
