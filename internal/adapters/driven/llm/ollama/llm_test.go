package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
)

func TestChat(t *testing.T) {
	var capturedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		capturedBody = body
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"PC210 is at Mining Site North."},"done":true}`))
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL, Model: "test-model"})

	reply, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "You answer fleet questions."},
		{Role: "user", Content: "Where is PC210?"},
	}, driven.ChatOptions{MaxTokens: 256, Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, "PC210 is at Mining Site North.", reply)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(capturedBody, &payload))
	assert.Equal(t, "test-model", payload["model"])
	assert.Equal(t, false, payload["stream"])

	msgs, ok := payload["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)

	opts, ok := payload["options"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(256), opts["num_predict"])
	assert.InDelta(t, 0.2, opts["temperature"], 1e-9)
}

func TestChat_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})

	_, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "user", Content: "hello"},
	}, driven.ChatOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestChat_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})

	_, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "user", Content: "hello"},
	}, driven.ChatOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})
	require.NoError(t, svc.Ping(context.Background()))
}

func TestDefaults(t *testing.T) {
	svc := NewLLMService(LLMConfig{})
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
	assert.NoError(t, svc.Close())
}
