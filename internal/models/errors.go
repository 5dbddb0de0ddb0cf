package models

import "errors"

// Run-level errors. Any of these aborts the whole run and no report
// is produced.
var (
	// ErrCategoryUnresolved no meta-category could be inferred and none was supplied
	ErrCategoryUnresolved = errors.New("meta-category could not be resolved")

	// ErrUnsupportedFormat the document file type is not recognized
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrExtractionFailed the document content could not be read
	ErrExtractionFailed = errors.New("document extraction failed")

	// ErrOCRService the remote OCR backend is unreachable or returned an error
	ErrOCRService = errors.New("ocr service error")

	// ErrEmbeddingService the embedding provider failed
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrIndexNotBuilt a query was issued before the document index was built
	ErrIndexNotBuilt = errors.New("index not built for document")
)

// Rule-level errors. These are caught at the per-rule boundary and
// recorded as degraded results; they never abort a run.
var (
	// ErrModelInvocation the language model call failed (timeout, quota, transport)
	ErrModelInvocation = errors.New("model invocation failed")

	// ErrOutputParse the model answered but its output did not match the expected shape
	ErrOutputParse = errors.New("model output could not be parsed")

	// ErrGradingFailed the grader returned no usable risk score
	ErrGradingFailed = errors.New("grading failed")
)

// Non-fatal conditions.
var (
	// ErrNoRules the selected category has no rule definitions; the caller
	// must warn but an empty report is a valid outcome
	ErrNoRules = errors.New("no rules found for category")

	// ErrRunNotFound a run record does not exist
	ErrRunNotFound = errors.New("run not found")

	// ErrDocumentNotFound a document record does not exist
	ErrDocumentNotFound = errors.New("document not found")
)
