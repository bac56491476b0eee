package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/audithq/audit-assist/internal/config"
	"github.com/audithq/audit-assist/internal/domain"
	"github.com/audithq/audit-assist/internal/llm"
)

func testChatConfig() config.ChatConfig {
	return config.ChatConfig{
		HistoryLimit:      10,
		CompletionTimeout: 30 * time.Second,
		PersistTimeout:    5 * time.Second,
	}
}

func testRetrievalConfig() config.RetrievalConfig {
	return config.RetrievalConfig{
		Timeout:   5 * time.Second,
		TopK:      5,
		Certainty: 0.6,
	}
}

func newTestRouter(provider llm.Provider) *llm.Router {
	router := llm.NewRouter(provider.Name())
	router.RegisterProvider(provider)
	return router
}

type capturedEvents struct {
	events []domain.ChatEvent
}

func (c *capturedEvents) emit(event domain.ChatEvent) error {
	c.events = append(c.events, event)
	return nil
}

func (c *capturedEvents) content() string {
	var sb strings.Builder
	for _, ev := range c.events {
		if ev.Type == domain.EventContent {
			sb.WriteString(ev.Chunk)
		}
	}
	return sb.String()
}

func TestStreamChat_HappyPath(t *testing.T) {
	auditID := uuid.New()

	sessionRepo := new(MockSessionRepository)
	messageRepo := new(MockMessageRepository)
	retriever := new(MockRetriever)
	contexts := new(MockContextProvider)

	sessionRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ChatSession")).Return(nil)
	messageRepo.On("Create", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
		return m.Role == domain.RoleUser && m.Content == "What did the report find?"
	})).Return(nil).Once()
	messageRepo.On("ListBySession", mock.Anything, mock.Anything, 10).Return([]domain.Message{}, nil)
	retriever.On("Retrieve", mock.Anything, auditID, "What did the report find?").Return([]domain.RetrievedChunk{
		{Filename: "report.pdf", Text: "Stock counts diverged by 3%.", Score: 0.91},
	}, nil)
	contexts.On("AuditContext", mock.Anything, auditID).Return("Title: Inventory Audit", nil)
	messageRepo.On("Create", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
		return m.Role == domain.RoleAssistant && m.Content == "The counts diverged."
	})).Return(nil).Once()

	provider := &scriptedProvider{deltas: []string{"The counts ", "diverged."}, failAfter: -1}
	svc := NewChatService(sessionRepo, messageRepo, retriever, contexts, newTestRouter(provider), testChatConfig(), testRetrievalConfig())

	captured := &capturedEvents{}
	err := svc.StreamChat(context.Background(), domain.ChatRequest{
		AuditID: auditID.String(),
		Message: "What did the report find?",
	}, captured.emit)

	require.NoError(t, err)
	require.NotEmpty(t, captured.events)

	// metadata comes first, with sources from retrieval
	meta := captured.events[0]
	assert.Equal(t, domain.EventMetadata, meta.Type)
	assert.NotEqual(t, uuid.Nil, meta.SessionID)
	require.Len(t, meta.Sources, 1)
	assert.Equal(t, "[1]", meta.Sources[0].Label)
	assert.Equal(t, "report.pdf", meta.Sources[0].Filename)

	// concatenated content events equal the full answer
	assert.Equal(t, "The counts diverged.", captured.content())

	messageRepo.AssertExpectations(t)
	sessionRepo.AssertExpectations(t)
}

func TestStreamChat_ExistingSessionReused(t *testing.T) {
	auditID := uuid.New()
	sessionID := uuid.New()

	sessionRepo := new(MockSessionRepository)
	messageRepo := new(MockMessageRepository)

	sessionRepo.On("Get", mock.Anything, sessionID).Return(&domain.ChatSession{ID: sessionID, AuditID: auditID}, nil)
	messageRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	messageRepo.On("ListBySession", mock.Anything, sessionID, 10).Return([]domain.Message{}, nil)

	provider := &scriptedProvider{deltas: []string{"ok"}, failAfter: -1}
	svc := NewChatService(sessionRepo, messageRepo, nil, nil, newTestRouter(provider), testChatConfig(), testRetrievalConfig())

	captured := &capturedEvents{}
	err := svc.StreamChat(context.Background(), domain.ChatRequest{
		AuditID:   auditID.String(),
		SessionID: sessionID.String(),
		Message:   "hi",
	}, captured.emit)

	require.NoError(t, err)
	assert.Equal(t, sessionID, captured.events[0].SessionID)
	sessionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestStreamChat_UnknownSessionRecreatedUnderSameID(t *testing.T) {
	auditID := uuid.New()
	sessionID := uuid.New()

	sessionRepo := new(MockSessionRepository)
	messageRepo := new(MockMessageRepository)

	sessionRepo.On("Get", mock.Anything, sessionID).Return(nil, domain.ErrNotFound)
	sessionRepo.On("Create", mock.Anything, mock.MatchedBy(func(s *domain.ChatSession) bool {
		return s.ID == sessionID && s.AuditID == auditID
	})).Return(nil)
	messageRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	messageRepo.On("ListBySession", mock.Anything, sessionID, 10).Return([]domain.Message{}, nil)

	provider := &scriptedProvider{deltas: []string{"ok"}, failAfter: -1}
	svc := NewChatService(sessionRepo, messageRepo, nil, nil, newTestRouter(provider), testChatConfig(), testRetrievalConfig())

	captured := &capturedEvents{}
	err := svc.StreamChat(context.Background(), domain.ChatRequest{
		AuditID:   auditID.String(),
		SessionID: sessionID.String(),
		Message:   "hi",
	}, captured.emit)

	require.NoError(t, err)
	assert.Equal(t, sessionID, captured.events[0].SessionID)
	sessionRepo.AssertExpectations(t)
}

func TestStreamChat_WrappedNotFoundStillRecreatesSession(t *testing.T) {
	auditID := uuid.New()
	sessionID := uuid.New()

	sessionRepo := new(MockSessionRepository)
	messageRepo := new(MockMessageRepository)

	// Repositories may wrap the sentinel; resolution must still treat
	// it as not-found rather than a hard failure.
	sessionRepo.On("Get", mock.Anything, sessionID).Return(nil, fmt.Errorf("failed to get session: %w", domain.ErrNotFound))
	sessionRepo.On("Create", mock.Anything, mock.MatchedBy(func(s *domain.ChatSession) bool {
		return s.ID == sessionID && s.AuditID == auditID
	})).Return(nil)
	messageRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	messageRepo.On("ListBySession", mock.Anything, sessionID, 10).Return([]domain.Message{}, nil)

	provider := &scriptedProvider{deltas: []string{"ok"}, failAfter: -1}
	svc := NewChatService(sessionRepo, messageRepo, nil, nil, newTestRouter(provider), testChatConfig(), testRetrievalConfig())

	captured := &capturedEvents{}
	err := svc.StreamChat(context.Background(), domain.ChatRequest{
		AuditID:   auditID.String(),
		SessionID: sessionID.String(),
		Message:   "hi",
	}, captured.emit)

	require.NoError(t, err)
	assert.Equal(t, sessionID, captured.events[0].SessionID)
	sessionRepo.AssertExpectations(t)
}

func TestStreamChat_SessionFromDifferentAuditRejected(t *testing.T) {
	auditID := uuid.New()
	otherAudit := uuid.New()
	sessionID := uuid.New()

	sessionRepo := new(MockSessionRepository)
	messageRepo := new(MockMessageRepository)

	sessionRepo.On("Get", mock.Anything, sessionID).Return(&domain.ChatSession{ID: sessionID, AuditID: otherAudit}, nil)

	provider := &scriptedProvider{deltas: []string{"ok"}, failAfter: -1}
	svc := NewChatService(sessionRepo, messageRepo, nil, nil, newTestRouter(provider), testChatConfig(), testRetrievalConfig())

	captured := &capturedEvents{}
	err := svc.StreamChat(context.Background(), domain.ChatRequest{
		AuditID:   auditID.String(),
		SessionID: sessionID.String(),
		Message:   "hi",
	}, captured.emit)

	assert.ErrorContains(t, err, "does not belong to audit")
	assert.Empty(t, captured.events)
	messageRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestStreamChat_RetrievalFailureDegrades(t *testing.T) {
	auditID := uuid.New()

	sessionRepo := new(MockSessionRepository)
	messageRepo := new(MockMessageRepository)
	retriever := new(MockRetriever)

	sessionRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	messageRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	messageRepo.On("ListBySession", mock.Anything, mock.Anything, 10).Return([]domain.Message{}, nil)
	retriever.On("Retrieve", mock.Anything, auditID, mock.Anything).Return(nil, errors.New("weaviate down"))

	provider := &scriptedProvider{deltas: []string{"answer without documents"}, failAfter: -1}
	svc := NewChatService(sessionRepo, messageRepo, retriever, nil, newTestRouter(provider), testChatConfig(), testRetrievalConfig())

	captured := &capturedEvents{}
	err := svc.StreamChat(context.Background(), domain.ChatRequest{
		AuditID: auditID.String(),
		Message: "hi",
	}, captured.emit)

	require.NoError(t, err)
	meta := captured.events[0]
	assert.Equal(t, domain.EventMetadata, meta.Type)
	assert.NotNil(t, meta.Sources)
	assert.Empty(t, meta.Sources, "sources must be an empty list, not omitted")
	assert.Equal(t, "answer without documents", captured.content())
}

func TestStreamChat_MidStreamFailureAppendsErrorAndPersists(t *testing.T) {
	auditID := uuid.New()

	sessionRepo := new(MockSessionRepository)
	messageRepo := new(MockMessageRepository)

	var persisted *domain.Message
	sessionRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	messageRepo.On("Create", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
		return m.Role == domain.RoleUser
	})).Return(nil)
	messageRepo.On("Create", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
		if m.Role != domain.RoleAssistant {
			return false
		}
		persisted = m
		return true
	})).Return(nil)
	messageRepo.On("ListBySession", mock.Anything, mock.Anything, 10).Return([]domain.Message{}, nil)

	provider := &scriptedProvider{
		deltas:    []string{"partial ", "answer"},
		failAfter: 2,
		failErr:   errors.New("connection reset"),
	}
	svc := NewChatService(sessionRepo, messageRepo, nil, nil, newTestRouter(provider), testChatConfig(), testRetrievalConfig())

	captured := &capturedEvents{}
	err := svc.StreamChat(context.Background(), domain.ChatRequest{
		AuditID: auditID.String(),
		Message: "hi",
	}, captured.emit)

	require.NoError(t, err, "a mid-stream failure is reported in-band, not as an error")
	assert.Equal(t, "partial answer\n\n[error: connection reset]", captured.content())

	require.NotNil(t, persisted)
	assert.Equal(t, "partial answer\n\n[error: connection reset]", persisted.Content)
}

func TestStreamChat_UserMessagePersistFailureIsFatal(t *testing.T) {
	auditID := uuid.New()

	sessionRepo := new(MockSessionRepository)
	messageRepo := new(MockMessageRepository)

	sessionRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	messageRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	provider := &scriptedProvider{deltas: []string{"ok"}, failAfter: -1}
	svc := NewChatService(sessionRepo, messageRepo, nil, nil, newTestRouter(provider), testChatConfig(), testRetrievalConfig())

	captured := &capturedEvents{}
	err := svc.StreamChat(context.Background(), domain.ChatRequest{
		AuditID: auditID.String(),
		Message: "hi",
	}, captured.emit)

	assert.ErrorContains(t, err, "failed to save user message")
	assert.Empty(t, captured.events)
}

func TestStreamChat_UnknownProviderFailsBeforeEvents(t *testing.T) {
	provider := &scriptedProvider{deltas: []string{"ok"}, failAfter: -1}
	svc := NewChatService(new(MockSessionRepository), new(MockMessageRepository), nil, nil, newTestRouter(provider), testChatConfig(), testRetrievalConfig())

	captured := &capturedEvents{}
	err := svc.StreamChat(context.Background(), domain.ChatRequest{
		AuditID:  uuid.New().String(),
		Message:  "hi",
		Provider: "nonexistent",
	}, captured.emit)

	assert.ErrorContains(t, err, "provider not found")
	assert.Empty(t, captured.events)
}

func TestStreamChat_HistoryExcludesJustPersistedUserMessage(t *testing.T) {
	auditID := uuid.New()

	sessionRepo := new(MockSessionRepository)
	sessionRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	// stub repo that echoes the just-written user turn back in history,
	// the way the real store does
	messageRepo := &echoingMessageRepo{}

	var gotMessages []llm.ChatMessage
	provider := &recordingProvider{deltas: []string{"ok"}, record: &gotMessages}
	svc := NewChatService(sessionRepo, messageRepo, nil, nil, newTestRouter(provider), testChatConfig(), testRetrievalConfig())

	captured := &capturedEvents{}
	err := svc.StreamChat(context.Background(), domain.ChatRequest{
		AuditID: auditID.String(),
		Message: "current question",
	}, captured.emit)

	require.NoError(t, err)

	count := 0
	for _, msg := range gotMessages {
		if msg.Content == "current question" {
			count++
		}
	}
	assert.Equal(t, 1, count, "the current question must appear exactly once in the prompt")
}

// echoingMessageRepo returns every created message as history, so the turn
// just written comes back the way a real store would return it.
type echoingMessageRepo struct {
	messages []domain.Message
}

func (r *echoingMessageRepo) Create(ctx context.Context, message *domain.Message) error {
	r.messages = append(r.messages, *message)
	return nil
}

func (r *echoingMessageRepo) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.Message, error) {
	history := []domain.Message{{ID: uuid.New(), Role: domain.RoleUser, Content: "earlier question"}}
	return append(history, r.messages...), nil
}

// recordingProvider captures the messages it was given before streaming.
type recordingProvider struct {
	deltas []string
	record *[]llm.ChatMessage
}

func (p *recordingProvider) Name() string         { return "scripted" }
func (p *recordingProvider) DefaultModel() string { return "scripted-1" }
func (p *recordingProvider) IsConfigured() bool   { return true }

func (p *recordingProvider) StreamChat(ctx context.Context, messages []llm.ChatMessage, model string, onDelta llm.DeltaFunc) error {
	*p.record = append([]llm.ChatMessage{}, messages...)
	for _, delta := range p.deltas {
		if err := onDelta(delta); err != nil {
			return err
		}
	}
	return nil
}
