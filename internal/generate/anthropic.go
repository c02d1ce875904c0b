package generate

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/pkg/anthropic"
)

// AnthropicBackend completes prompts with Claude. The system prompt is sent
// as a cached block since it is identical for the whole batch.
type AnthropicBackend struct {
	client anthropic.Client
	model  string
	retry  resilience.RetryConfig
}

// NewAnthropicBackend creates a backend for model. An empty model selects
// Haiku.
func NewAnthropicBackend(client anthropic.Client, model string) *AnthropicBackend {
	if model == "" {
		model = ModelHaiku
	}
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("anthropic", "create_message")
	return &AnthropicBackend{client: client, model: model, retry: retry}
}

// Name implements Backend.
func (b *AnthropicBackend) Name() string { return "anthropic/" + b.model }

// Complete implements Backend.
func (b *AnthropicBackend) Complete(ctx context.Context, p Prompt) (Completion, error) {
	maxTokens := p.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxToken
	}
	req := anthropic.MessageRequest{
		Model:     b.model,
		MaxTokens: maxTokens,
		Messages:  []anthropic.Message{{Role: "user", Content: p.User}},
	}
	if p.System != "" {
		req.System = anthropic.CachedSystem(p.System)
	}

	resp, err := resilience.DoVal(ctx, b.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return b.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return Completion{}, eris.Wrap(err, "generate: anthropic completion")
	}
	zap.L().Debug("generation usage",
		zap.String("model", b.model),
		zap.String("lead_id", p.LeadID),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
		zap.Int64("cache_read_tokens", resp.Usage.CacheReadInputTokens),
	)

	return Completion{
		Text:         resp.Text(),
		Model:        b.model,
		InputTokens:  resp.Usage.InputTokens + resp.Usage.CacheCreationInputTokens + resp.Usage.CacheReadInputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}
