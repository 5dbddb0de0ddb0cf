package services

// ResultStatus classifies the outcome of one rule evaluation.
type ResultStatus string

const (
	// StatusSuccess the model answered and the output parsed
	StatusSuccess ResultStatus = "success"
	// StatusParseError the model answered but the output did not match
	// the expected format
	StatusParseError ResultStatus = "parse_error"
	// StatusModelError the model invocation itself failed
	StatusModelError ResultStatus = "model_error"
)

// RetrievedChunk is one retrieved document chunk with its distance to
// the rule's query.
type RetrievedChunk struct {
	ChunkID  int     `json:"chunk_id"`
	Text     string  `json:"text"`
	Distance float32 `json:"distance"`
}

// EvaluationResult is the outcome of applying one rule to a document.
// A result exists for every selected rule, whatever the outcome.
type EvaluationResult struct {
	ControlID string                 `json:"control_id"`
	RawOutput string                 `json:"raw_output"`
	Parsed    map[string]interface{} `json:"parsed,omitempty"`
	Retrieved []RetrievedChunk       `json:"retrieved,omitempty"`
	Status    ResultStatus           `json:"status"`
	Error     string                 `json:"error,omitempty"`
}

// GradedResult is an evaluation result with its risk score. RiskScore
// is nil when grading failed; such results never pass.
type GradedResult struct {
	ControlID   string `json:"control_id"`
	Description string `json:"description"`
	RiskScore   *int   `json:"risk_score"`
	Rationale   string `json:"rationale"`
	Pass        bool   `json:"pass"`
}
