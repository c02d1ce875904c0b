// Package generate composes personalized outreach emails. A language model
// writes the two or three connection sentences; the rest of the message is
// fixed consultant copy.
package generate

import "context"

// Model constants.
const (
	ModelHaiku      = "claude-haiku-4-5-20251001"
	ModelSonnet     = "claude-sonnet-4-5-20250929"
	ModelGPT41Mini  = "gpt-4.1-mini"
	DefaultMaxToken = 400
)

// Prompt is a single-turn completion request.
type Prompt struct {
	System    string
	User      string
	MaxTokens int64
	LeadID    string
}

// Completion is the model output plus its token usage.
type Completion struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Tokens is the number of tokens recorded on the lead.
func (c Completion) Tokens() int64 {
	return c.InputTokens + c.OutputTokens
}

// Backend is a language model that completes prompts.
type Backend interface {
	Name() string
	Complete(ctx context.Context, p Prompt) (Completion, error)
}
