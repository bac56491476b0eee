// Package echo provides a deterministic provider for local development and
// tests. It streams the last user message back word by word.
package echo

import (
	"context"
	"strings"

	"github.com/audithq/audit-assist/internal/llm"
)

type Provider struct{}

func NewProvider() llm.Provider {
	return &Provider{}
}

func (p *Provider) Name() string {
	return "echo"
}

func (p *Provider) DefaultModel() string {
	return "echo-1"
}

func (p *Provider) IsConfigured() bool {
	return true
}

// StreamChat echoes the final user message one word at a time
func (p *Provider) StreamChat(ctx context.Context, messages []llm.ChatMessage, model string, onDelta llm.DeltaFunc) error {
	var last string
	for _, msg := range messages {
		if msg.Role == llm.RoleUser {
			last = msg.Content
		}
	}

	words := strings.Fields(last)
	for i, word := range words {
		if err := ctx.Err(); err != nil {
			return err
		}
		delta := word
		if i < len(words)-1 {
			delta += " "
		}
		if err := onDelta(delta); err != nil {
			return err
		}
	}
	return nil
}
