package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/EricBlanvillain/control-automation/internal/llm"
	"github.com/EricBlanvillain/control-automation/internal/models"
	"github.com/EricBlanvillain/control-automation/internal/rules"
)

// Evaluator applies one rule at a time to a document through the
// evaluation model. It always produces a result; failures are recorded
// in the result's status instead of aborting the run.
type Evaluator struct {
	llm    llm.Client
	logger *logrus.Logger
}

// NewEvaluator creates an evaluator over the given model client.
func NewEvaluator(client llm.Client, logger *logrus.Logger) *Evaluator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Evaluator{llm: client, logger: logger}
}

// Evaluate runs the rule against the retrieved chunks and returns its
// result. The retrieved chunks are kept on the result for the report.
func (e *Evaluator) Evaluate(ctx context.Context, rule rules.Rule, retrieved []RetrievedChunk) EvaluationResult {
	result := EvaluationResult{
		ControlID: rule.ControlID,
		Retrieved: retrieved,
	}

	prompt := BuildEvaluationPrompt(rule, retrieved)
	resp, err := e.llm.Generate(ctx, prompt)
	if err != nil {
		e.logger.WithError(err).WithField("control_id", rule.ControlID).Warn("Evaluation model invocation failed")
		result.Status = StatusModelError
		result.Error = fmt.Sprintf("%s: %s", models.ErrModelInvocation, err)
		return result
	}

	result.RawOutput = resp.Text

	// free-text formats keep the raw output as the finding
	if !expectsJSON(rule.ExpectedFormat) {
		result.Status = StatusSuccess
		return result
	}

	parsed, err := parseJSONOutput(resp.Text)
	if err != nil {
		e.logger.WithError(err).WithField("control_id", rule.ControlID).Warn("Evaluation output did not parse")
		result.Status = StatusParseError
		result.Error = fmt.Sprintf("%s: %s", models.ErrOutputParse, err)
		return result
	}

	result.Parsed = parsed
	result.Status = StatusSuccess
	return result
}

// expectsJSON reports whether the rule's expected output format asks
// for a structured JSON object. An empty format defaults to JSON.
func expectsJSON(format string) bool {
	f := strings.ToLower(strings.TrimSpace(format))
	if f == "" {
		return true
	}
	return strings.Contains(f, "json") || strings.Contains(f, "{")
}

// parseJSONOutput extracts a JSON object from model output, tolerating
// fenced code blocks and surrounding prose.
func parseJSONOutput(text string) (map[string]interface{}, error) {
	candidate := strings.TrimSpace(text)

	if start := strings.Index(candidate, "```"); start >= 0 {
		candidate = candidate[start+3:]
		candidate = strings.TrimPrefix(candidate, "json")
		if end := strings.Index(candidate, "```"); end >= 0 {
			candidate = candidate[:end]
		}
		candidate = strings.TrimSpace(candidate)
	}

	if start := strings.Index(candidate, "{"); start >= 0 {
		if end := strings.LastIndex(candidate, "}"); end > start {
			candidate = candidate[start : end+1]
		}
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}
