package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/EricBlanvillain/control-automation/internal/llm"
	"github.com/EricBlanvillain/control-automation/internal/models"
	"github.com/EricBlanvillain/control-automation/internal/rules"
)

// PassThreshold is the exclusive upper bound on passing risk scores. A
// control passes when its score is strictly below this value.
const PassThreshold = 5

// Grader turns evaluation results into risk scores. Evaluations that
// already failed are graded as failures without calling the model.
type Grader struct {
	llm    llm.Client
	logger *logrus.Logger
}

// NewGrader creates a grader over the given model client.
func NewGrader(client llm.Client, logger *logrus.Logger) *Grader {
	if logger == nil {
		logger = logrus.New()
	}
	return &Grader{llm: client, logger: logger}
}

// Grade scores one evaluation result. The returned result always
// exists; a nil RiskScore marks a grading failure and never passes.
func (g *Grader) Grade(ctx context.Context, rule rules.Rule, eval EvaluationResult) GradedResult {
	result := GradedResult{
		ControlID:   rule.ControlID,
		Description: rule.Description,
	}

	if eval.Status != StatusSuccess {
		result.Rationale = fmt.Sprintf("%s during evaluation", eval.Status)
		return result
	}

	prompt := BuildGradingPrompt(rule, eval)
	resp, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		g.logger.WithError(err).WithField("control_id", rule.ControlID).Warn("Grading model invocation failed")
		result.Rationale = fmt.Sprintf("%s: model invocation failed", models.ErrGradingFailed)
		return result
	}

	score, err := parseRiskScore(resp.Text)
	if err != nil {
		g.logger.WithFields(logrus.Fields{
			"control_id": rule.ControlID,
			"output":     resp.Text,
		}).Warn("Grader output is not a valid score")
		result.Rationale = fmt.Sprintf("%s: %s", models.ErrGradingFailed, err)
		return result
	}

	result.RiskScore = &score
	result.Pass = score < PassThreshold
	result.Rationale = fmt.Sprintf("risk score %d", score)
	return result
}

// parseRiskScore extracts an integer score in [1,10] from grader
// output. Anything else is a grading failure.
func parseRiskScore(text string) (int, error) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty grader output")
	}

	raw := strings.TrimSuffix(fields[0], ".")
	raw = strings.TrimSuffix(raw, "/10")
	score, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("grader output %q is not an integer", text)
	}
	if score < 1 || score > 10 {
		return 0, fmt.Errorf("risk score %d is out of range", score)
	}
	return score, nil
}
