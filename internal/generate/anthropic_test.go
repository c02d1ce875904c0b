package generate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/pkg/anthropic"
)

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func TestAnthropicBackend_Complete(t *testing.T) {
	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == ModelHaiku &&
			req.MaxTokens == DefaultMaxToken &&
			len(req.System) == 1 && req.System[0].CacheControl != nil &&
			req.Messages[0].Content == "hallo"
	})).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: " Twee zinnen. "}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, CacheReadInputTokens: 200, OutputTokens: 50},
	}, nil)

	b := NewAnthropicBackend(client, "")
	assert.Equal(t, "anthropic/"+ModelHaiku, b.Name())

	out, err := b.Complete(context.Background(), Prompt{System: "sys", User: "hallo"})
	require.NoError(t, err)
	assert.Equal(t, "Twee zinnen.", out.Text)
	assert.EqualValues(t, 300, out.InputTokens)
	assert.EqualValues(t, 350, out.Tokens())
	assert.Equal(t, ModelHaiku, out.Model)
}

func TestAnthropicBackend_PermanentError(t *testing.T) {
	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("invalid model")).Once()

	_, err := NewAnthropicBackend(client, ModelSonnet).Complete(context.Background(), Prompt{User: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model")
	client.AssertNumberOfCalls(t, "CreateMessage", 1)
}
