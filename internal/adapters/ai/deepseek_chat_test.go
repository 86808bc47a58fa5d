package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/pkg/errors"
)

const completionJSON = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "deepseek-chat",
  "choices": [{
    "index": 0,
    "message": {"role": "assistant", "content": "AAPL is consolidating."},
    "finish_reason": "stop"
  }],
  "usage": {"prompt_tokens": 120, "completion_tokens": 8, "total_tokens": 128}
}`

func TestNewDeepSeekProvider_RequiresKey(t *testing.T) {
	_, err := NewDeepSeekProvider(DeepSeekConfig{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotConfigured))
}

func TestDeepSeekProvider_Chat(t *testing.T) {
	var body map[string]interface{}
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		auth = r.Header.Get("Authorization")

		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionJSON))
	}))
	defer srv.Close()

	p, err := NewDeepSeekProvider(DeepSeekConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(), ChatRequest{
		Model: "deepseek-chat",
		Messages: []Message{
			{Role: RoleSystem, Content: "You are an analyst."},
			{Role: RoleUser, Content: "Summarize AAPL."},
		},
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "AAPL is consolidating.", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, int64(128), resp.Usage.TotalTokens)

	assert.Equal(t, "deepseek-chat", body["model"])
	assert.InDelta(t, 0.7, body["temperature"], 1e-9)
	assert.EqualValues(t, 1000, body["max_tokens"])

	msgs, ok := body["messages"].([]interface{})
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestDeepSeekProvider_ErrorIsExternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"auth"}}`))
	}))
	defer srv.Close()

	p, err := NewDeepSeekProvider(DeepSeekConfig{APIKey: "sk-bad", BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)

	_, err = p.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrExternal))
}

func TestDeepSeekProvider_EmptyMessages(t *testing.T) {
	p, err := NewDeepSeekProvider(DeepSeekConfig{APIKey: "sk"})
	require.NoError(t, err)

	_, err = p.Chat(context.Background(), ChatRequest{})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}
