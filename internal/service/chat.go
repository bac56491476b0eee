package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/audithq/audit-assist/internal/config"
	"github.com/audithq/audit-assist/internal/domain"
	"github.com/audithq/audit-assist/internal/llm"
)

// Retriever finds document chunks relevant to a query within one audit.
type Retriever interface {
	Retrieve(ctx context.Context, auditID uuid.UUID, query string) ([]domain.RetrievedChunk, error)
}

// ContextProvider supplies the formatted audit context for prompts.
type ContextProvider interface {
	AuditContext(ctx context.Context, auditID uuid.UUID) (string, error)
}

// EmitFunc delivers one chat event to the client. Returning an error means
// the client can no longer receive events and the stream should stop.
type EmitFunc func(event domain.ChatEvent) error

// ChatService orchestrates a chat turn: session resolution, message
// persistence, retrieval, prompt assembly and streamed completion.
type ChatService struct {
	sessionRepo domain.SessionRepository
	messageRepo domain.MessageRepository
	retriever   Retriever
	contexts    ContextProvider
	llmRouter   *llm.Router
	chatCfg     config.ChatConfig
	retrieval   config.RetrievalConfig
}

// NewChatService creates a new chat service. retriever may be nil when no
// vector store is available; chat then proceeds without document context.
func NewChatService(
	sessionRepo domain.SessionRepository,
	messageRepo domain.MessageRepository,
	retriever Retriever,
	contexts ContextProvider,
	llmRouter *llm.Router,
	chatCfg config.ChatConfig,
	retrievalCfg config.RetrievalConfig,
) *ChatService {
	return &ChatService{
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		retriever:   retriever,
		contexts:    contexts,
		llmRouter:   llmRouter,
		chatCfg:     chatCfg,
		retrieval:   retrievalCfg,
	}
}

// StreamChat runs one chat turn. Events are delivered through emit in
// order: one metadata event, then content events until the completion
// finishes. A completion failure after streaming has begun is reported as a
// final content event and the partial answer is still persisted; only
// failures before the metadata event surface as a returned error.
func (s *ChatService) StreamChat(ctx context.Context, req domain.ChatRequest, emit EmitFunc) error {
	auditID, err := uuid.Parse(req.AuditID)
	if err != nil {
		return fmt.Errorf("invalid audit id: %w", err)
	}

	// Resolve the provider before any event goes out, so a misconfigured
	// provider is a plain HTTP error instead of a broken stream.
	provider, err := s.llmRouter.GetProvider(req.Provider)
	if err != nil {
		return err
	}

	session, err := s.resolveSession(ctx, auditID, req.SessionID)
	if err != nil {
		return err
	}

	userMsg := &domain.Message{
		ID:        uuid.New(),
		SessionID: session.ID,
		Role:      domain.RoleUser,
		Content:   req.Message,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messageRepo.Create(ctx, userMsg); err != nil {
		return fmt.Errorf("failed to save user message: %w", err)
	}

	chunks := s.retrieve(ctx, auditID, req.Message)
	sources := llm.SourcesFromChunks(chunks)

	auditContext := ""
	if s.contexts != nil {
		auditContext, err = s.contexts.AuditContext(ctx, auditID)
		if err != nil {
			log.Warn().Err(err).Str("audit_id", auditID.String()).Msg("failed to load audit context")
			auditContext = ""
		}
	}

	history, err := s.messageRepo.ListBySession(ctx, session.ID, s.chatCfg.HistoryLimit)
	if err != nil {
		log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("failed to load chat history")
		history = nil
	}

	messages := llm.BuildMessages(auditContext, chunks, history, req.Message, userMsg.ID)

	if err := emit(domain.MetadataEvent(session.ID, sources)); err != nil {
		return err
	}

	var answer strings.Builder
	var emitErr error

	streamCtx, cancel := context.WithTimeout(ctx, s.chatCfg.CompletionTimeout)
	defer cancel()

	streamErr := provider.StreamChat(streamCtx, messages, req.Model, func(delta string) error {
		answer.WriteString(delta)
		if err := emit(domain.ContentEvent(delta)); err != nil {
			emitErr = err
			return err
		}
		return nil
	})

	if streamErr != nil && emitErr == nil {
		log.Error().Err(streamErr).
			Str("session_id", session.ID.String()).
			Str("provider", provider.Name()).
			Msg("completion stream failed")

		suffix := fmt.Sprintf("\n\n[error: %s]", streamErr.Error())
		answer.WriteString(suffix)
		if err := emit(domain.ContentEvent(suffix)); err != nil {
			emitErr = err
		}
	}

	s.persistAssistantMessage(ctx, session.ID, answer.String())

	return emitErr
}

// resolveSession loads the requested session or creates one. An unknown
// session ID is recreated under the same ID, so clients that kept an ID
// across a data reset keep working.
func (s *ChatService) resolveSession(ctx context.Context, auditID uuid.UUID, sessionID string) (*domain.ChatSession, error) {
	now := time.Now().UTC()

	if sessionID != "" {
		id, err := uuid.Parse(sessionID)
		if err != nil {
			return nil, fmt.Errorf("invalid session id: %w", err)
		}

		session, err := s.sessionRepo.Get(ctx, id)
		if err == nil {
			if session.AuditID != auditID {
				return nil, fmt.Errorf("session %s does not belong to audit %s", id, auditID)
			}
			return session, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}

		session = &domain.ChatSession{ID: id, AuditID: auditID, CreatedAt: now, UpdatedAt: now}
		if err := s.sessionRepo.Create(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to recreate session: %w", err)
		}
		log.Info().Str("session_id", id.String()).Msg("Recreated unknown session")
		return session, nil
	}

	session := &domain.ChatSession{ID: uuid.New(), AuditID: auditID, CreatedAt: now, UpdatedAt: now}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// retrieve runs best-effort retrieval under its own deadline. Any failure
// degrades to an answer without document context.
func (s *ChatService) retrieve(ctx context.Context, auditID uuid.UUID, query string) []domain.RetrievedChunk {
	if s.retriever == nil {
		return nil
	}

	retrievalCtx, cancel := context.WithTimeout(ctx, s.retrieval.Timeout)
	defer cancel()

	chunks, err := s.retriever.Retrieve(retrievalCtx, auditID, query)
	if err != nil {
		log.Warn().Err(err).Str("audit_id", auditID.String()).Msg("retrieval failed, continuing without documents")
		return nil
	}
	return chunks
}

// persistAssistantMessage saves the accumulated answer. It runs on a
// detached context so a client disconnect cannot cancel the write.
func (s *ChatService) persistAssistantMessage(ctx context.Context, sessionID uuid.UUID, content string) {
	if content == "" {
		return
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.chatCfg.PersistTimeout)
	defer cancel()

	msg := &domain.Message{
		ID:        uuid.New(),
		SessionID: sessionID,
		Role:      domain.RoleAssistant,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messageRepo.Create(persistCtx, msg); err != nil {
		log.Error().Err(err).Str("session_id", sessionID.String()).Msg("failed to save assistant message")
	}
}
