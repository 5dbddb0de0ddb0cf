package services

import (
	"fmt"
	"strings"

	"github.com/EricBlanvillain/control-automation/internal/rules"
)

// BuildRetrievalQuery builds the vector search query for a rule. The
// description alone drives retrieval; instructions only shape the
// evaluation prompt.
func BuildRetrievalQuery(rule rules.Rule) string {
	if rule.Description != "" {
		return rule.Description
	}
	return strings.Join(rule.PromptInstructions, "\n")
}

// BuildEvaluationPrompt builds the evaluator prompt for a rule over the
// retrieved document context.
func BuildEvaluationPrompt(rule rules.Rule, retrieved []RetrievedChunk) string {
	var b strings.Builder

	b.WriteString("You are a compliance control agent. Apply the control below to the document excerpts and report your findings.\n\n")
	fmt.Fprintf(&b, "Control %s: %s\n\n", rule.ControlID, rule.Description)

	b.WriteString("Instructions:\n")
	for i, instruction := range rule.PromptInstructions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, instruction)
	}

	b.WriteString("\nDocument excerpts:\n")
	for _, chunk := range retrieved {
		fmt.Fprintf(&b, "[chunk %d] %s\n\n", chunk.ChunkID, chunk.Text)
	}

	switch {
	case rule.ExpectedFormat == "":
		b.WriteString("Respond with a JSON object summarizing your findings, and nothing else.\n")
	case expectsJSON(rule.ExpectedFormat):
		fmt.Fprintf(&b, "Respond with JSON matching this format, and nothing else:\n%s\n", rule.ExpectedFormat)
	default:
		fmt.Fprintf(&b, "Respond in this format, and nothing else:\n%s\n", rule.ExpectedFormat)
	}
	return b.String()
}

// BuildGradingPrompt builds the grader prompt for an evaluation result.
func BuildGradingPrompt(rule rules.Rule, eval EvaluationResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "A compliance control was applied to a document.\n\nControl %s: %s\n\n", rule.ControlID, rule.Description)
	fmt.Fprintf(&b, "Control output:\n%s\n\n", eval.RawOutput)
	b.WriteString("Evaluate risk (1=low, 10=high). Output ONLY the integer score.")
	return b.String()
}
