package llm

import "time"

// MessageRole identifies the author of a chat message.
type MessageRole string

const (
	// RoleSystem marks system instructions.
	RoleSystem MessageRole = "system"
	// RoleUser marks user input.
	RoleUser MessageRole = "user"
	// RoleAssistant marks model output.
	RoleAssistant MessageRole = "assistant"
)

// Message is one turn in a chat sequence.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// Response is a model completion.
type Response struct {
	Text       string
	TokenCount int
	ModelName  string
	FinishTime time.Time
}
