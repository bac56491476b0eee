package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audithq/audit-assist/internal/llm"
)

func TestStreamChat_CollectsDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		assert.Equal(t, "llama3", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/x-ndjson")
		lines := []string{
			`{"message":{"content":"Hello"},"done":false}`,
			`{"message":{"content":" world"},"done":false}`,
			`{"message":{"content":""},"done":true}`,
		}
		for _, line := range lines {
			w.Write([]byte(line + "\n"))
		}
	}))
	defer server.Close()

	provider := NewProvider(server.URL, "llama3")

	var got strings.Builder
	err := provider.StreamChat(context.Background(), []llm.ChatMessage{
		{Role: llm.RoleSystem, Content: "You are helpful."},
		{Role: llm.RoleUser, Content: "Say hello."},
	}, "", func(delta string) error {
		got.WriteString(delta)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello world", got.String())
}

func TestStreamChat_StreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":{"content":"partial"},"done":false}` + "\n"))
		w.Write([]byte(`{"error":"model not found"}` + "\n"))
	}))
	defer server.Close()

	provider := NewProvider(server.URL, "llama3")

	var got strings.Builder
	err := provider.StreamChat(context.Background(), []llm.ChatMessage{
		{Role: llm.RoleUser, Content: "hi"},
	}, "llama3", func(delta string) error {
		got.WriteString(delta)
		return nil
	})

	assert.ErrorContains(t, err, "model not found")
	assert.Equal(t, "partial", got.String(), "deltas before the failure are still delivered")
}

func TestStreamChat_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := NewProvider(server.URL, "llama3")

	err := provider.StreamChat(context.Background(), []llm.ChatMessage{
		{Role: llm.RoleUser, Content: "hi"},
	}, "llama3", func(string) error { return nil })

	assert.ErrorContains(t, err, "status 500")
}

func TestStreamChat_DeltaCallbackAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":{"content":"one"},"done":false}` + "\n"))
		w.Write([]byte(`{"message":{"content":"two"},"done":false}` + "\n"))
	}))
	defer server.Close()

	provider := NewProvider(server.URL, "llama3")

	calls := 0
	err := provider.StreamChat(context.Background(), []llm.ChatMessage{
		{Role: llm.RoleUser, Content: "hi"},
	}, "llama3", func(string) error {
		calls++
		return context.Canceled
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsConfigured(t *testing.T) {
	assert.True(t, NewProvider("http://localhost:11434", "").IsConfigured())
	assert.False(t, NewProvider("", "").IsConfigured())
}
