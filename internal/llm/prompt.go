package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/audithq/audit-assist/internal/domain"
)

const systemPreamble = `You are an assistant for internal audit work. Answer questions using the audit information and document excerpts provided below. When you use an excerpt, cite it by its number, e.g. [1]. If the provided material does not answer the question, say so instead of guessing.`

// snippetLength bounds the source snippets surfaced to the client.
const snippetLength = 100

// BuildMessages assembles the provider message list for one chat turn:
// a system message carrying the audit context and numbered document
// excerpts, the stored conversation history, then the current user message.
// The history entry matching excludeID is skipped so the just-persisted
// user message does not appear twice.
func BuildMessages(auditContext string, chunks []domain.RetrievedChunk, history []domain.Message, userMessage string, excludeID uuid.UUID) []ChatMessage {
	var sb strings.Builder
	sb.WriteString(systemPreamble)

	if auditContext != "" {
		sb.WriteString("\n\nAudit:\n")
		sb.WriteString(auditContext)
	}

	if len(chunks) > 0 {
		sb.WriteString("\n\nDocument excerpts:\n")
		for i, chunk := range chunks {
			sb.WriteString(fmt.Sprintf("\n[%d] From document '%s':\n%s\n", i+1, chunk.Filename, chunk.Text))
		}
	} else {
		sb.WriteString("\n\nNo document excerpts were found for this question.")
	}

	messages := []ChatMessage{{Role: RoleSystem, Content: sb.String()}}

	for _, msg := range history {
		if msg.ID == excludeID {
			continue
		}
		switch msg.Role {
		case domain.RoleUser:
			messages = append(messages, ChatMessage{Role: RoleUser, Content: msg.Content})
		case domain.RoleAssistant:
			messages = append(messages, ChatMessage{Role: RoleAssistant, Content: msg.Content})
		}
	}

	messages = append(messages, ChatMessage{Role: RoleUser, Content: userMessage})
	return messages
}

// SourcesFromChunks builds the source list sent in the metadata event.
// Labels match the citation numbers used in the prompt.
func SourcesFromChunks(chunks []domain.RetrievedChunk) []domain.Source {
	sources := make([]domain.Source, 0, len(chunks))
	for i, chunk := range chunks {
		snippet := chunk.Text
		if len(snippet) > snippetLength {
			// Back up to a rune boundary so the cut never splits a
			// multi-byte character.
			cut := snippetLength
			for cut > 0 && !utf8.RuneStart(snippet[cut]) {
				cut--
			}
			snippet = snippet[:cut] + "..."
		}
		sources = append(sources, domain.Source{
			Label:    fmt.Sprintf("[%d]", i+1),
			Filename: chunk.Filename,
			Snippet:  snippet,
		})
	}
	return sources
}
