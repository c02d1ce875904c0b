package generate

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

// OpenAIBackend completes prompts with the OpenAI chat completions API.
type OpenAIBackend struct {
	client *openai.Client
	model  string
	retry  resilience.RetryConfig
}

// NewOpenAIBackend creates a backend for model. A non-empty baseURL points
// the client at a compatible endpoint.
func NewOpenAIBackend(apiKey, model, baseURL string) *OpenAIBackend {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = ModelGPT41Mini
	}
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("openai", "chat_completion")
	retry.ShouldRetry = openAIRetryable
	return &OpenAIBackend{client: openai.NewClientWithConfig(cfg), model: model, retry: retry}
}

// Name implements Backend.
func (b *OpenAIBackend) Name() string { return "openai/" + b.model }

// Complete implements Backend.
func (b *OpenAIBackend) Complete(ctx context.Context, p Prompt) (Completion, error) {
	maxTokens := int(p.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = DefaultMaxToken
	}
	var msgs []openai.ChatCompletionMessage
	if p.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: p.User})

	resp, err := resilience.DoVal(ctx, b.retry, func(ctx context.Context) (openai.ChatCompletionResponse, error) {
		return b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:     b.model,
			Messages:  msgs,
			MaxTokens: maxTokens,
		})
	})
	if err != nil {
		return Completion{}, eris.Wrap(err, "generate: openai completion")
	}
	if len(resp.Choices) == 0 {
		return Completion{}, eris.New("generate: openai returned no choices")
	}

	zap.L().Debug("generation usage",
		zap.String("model", b.model),
		zap.String("lead_id", p.LeadID),
		zap.Int("input_tokens", resp.Usage.PromptTokens),
		zap.Int("output_tokens", resp.Usage.CompletionTokens),
	)
	return Completion{
		Text:         strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:        b.model,
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
	}, nil
}

func openAIRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return resilience.IsTransientHTTPStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return resilience.IsTransientHTTPStatus(reqErr.HTTPStatusCode)
	}
	return resilience.IsTransient(err)
}
