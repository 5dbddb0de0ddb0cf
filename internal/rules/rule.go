package rules

import (
	"fmt"
	"strings"
)

// Rule is one control applied to documents of its meta category.
type Rule struct {
	ControlID          string   `json:"control_id"`
	Description        string   `json:"description"`
	MetaCategory       string   `json:"meta_category"`
	PromptInstructions []string `json:"prompt_instructions"`
	ExpectedFormat     string   `json:"expected_output_format"`
}

// Validate checks that the rule has the required fields.
func (r *Rule) Validate() error {
	if strings.TrimSpace(r.ControlID) == "" {
		return fmt.Errorf("control_id is required")
	}
	if strings.TrimSpace(r.MetaCategory) == "" {
		return fmt.Errorf("meta_category is required")
	}
	if len(r.PromptInstructions) == 0 {
		return fmt.Errorf("prompt_instructions are required")
	}
	return nil
}
