package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

func TestOpenAIBackend_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, ModelGPT41Mini, req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,
			"message":{"role":"assistant","content":"  Zin een. Zin twee. "},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":120,"completion_tokens":40,"total_tokens":160}}`))
	}))
	defer srv.Close()

	b := NewOpenAIBackend("test-key", "", srv.URL)
	assert.Equal(t, "openai/"+ModelGPT41Mini, b.Name())

	out, err := b.Complete(context.Background(), Prompt{System: "sys", User: "hallo"})
	require.NoError(t, err)
	assert.Equal(t, "Zin een. Zin twee.", out.Text)
	assert.EqualValues(t, 160, out.Tokens())
	assert.Equal(t, ModelGPT41Mini, out.Model)
}

func TestOpenAIBackend_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	b := NewOpenAIBackend("k", "gpt-4o", srv.URL)
	b.retry = resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, ShouldRetry: openAIRetryable}

	out, err := b.Complete(context.Background(), Prompt{User: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAIBackend_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIBackend("k", "", srv.URL).Complete(context.Background(), Prompt{User: "x"})
	assert.ErrorContains(t, err, "no choices")
}

func TestOpenAIBackend_Unauthorized(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIBackend("k", "", srv.URL).Complete(context.Background(), Prompt{User: "x"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
