package echo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audithq/audit-assist/internal/llm"
)

func TestStreamChat_EchoesLastUserMessage(t *testing.T) {
	provider := NewProvider()

	var deltas []string
	err := provider.StreamChat(context.Background(), []llm.ChatMessage{
		{Role: llm.RoleSystem, Content: "ignored"},
		{Role: llm.RoleUser, Content: "first question"},
		{Role: llm.RoleAssistant, Content: "an answer"},
		{Role: llm.RoleUser, Content: "hello there world"},
	}, "", func(delta string) error {
		deltas = append(deltas, delta)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"hello ", "there ", "world"}, deltas)
}

func TestStreamChat_EmptyMessage(t *testing.T) {
	provider := NewProvider()

	calls := 0
	err := provider.StreamChat(context.Background(), []llm.ChatMessage{
		{Role: llm.RoleUser, Content: "   "},
	}, "", func(string) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestStreamChat_CancelledContext(t *testing.T) {
	provider := NewProvider()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := provider.StreamChat(ctx, []llm.ChatMessage{
		{Role: llm.RoleUser, Content: "hello"},
	}, "", func(string) error { return nil })

	assert.ErrorIs(t, err, context.Canceled)
}
