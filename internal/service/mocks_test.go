package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/audithq/audit-assist/internal/domain"
	"github.com/audithq/audit-assist/internal/llm"
)

// MockSessionRepository mocks the SessionRepository interface
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.ChatSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) Get(ctx context.Context, id uuid.UUID) (*domain.ChatSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatSession), args.Error(1)
}

func (m *MockSessionRepository) ListByAudit(ctx context.Context, auditID uuid.UUID, limit, offset int) ([]domain.ChatSession, error) {
	args := m.Called(ctx, auditID, limit, offset)
	return args.Get(0).([]domain.ChatSession), args.Error(1)
}

func (m *MockSessionRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockMessageRepository mocks the MessageRepository interface
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.Message, error) {
	args := m.Called(ctx, sessionID, limit)
	return args.Get(0).([]domain.Message), args.Error(1)
}

// MockAuditRepository mocks the AuditRepository interface
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, audit *domain.Audit) error {
	args := m.Called(ctx, audit)
	return args.Error(0)
}

func (m *MockAuditRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Audit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Audit), args.Error(1)
}

func (m *MockAuditRepository) List(ctx context.Context, limit, offset int) ([]domain.Audit, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]domain.Audit), args.Error(1)
}

func (m *MockAuditRepository) Update(ctx context.Context, audit *domain.Audit) error {
	args := m.Called(ctx, audit)
	return args.Error(0)
}

// MockRetriever mocks the Retriever interface
type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Retrieve(ctx context.Context, auditID uuid.UUID, query string) ([]domain.RetrievedChunk, error) {
	args := m.Called(ctx, auditID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievedChunk), args.Error(1)
}

// MockContextProvider mocks the ContextProvider interface
type MockContextProvider struct {
	mock.Mock
}

func (m *MockContextProvider) AuditContext(ctx context.Context, auditID uuid.UUID) (string, error) {
	args := m.Called(ctx, auditID)
	return args.String(0), args.Error(1)
}

// MockEmbedder mocks the embedding.Embedder interface
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockChunkStore mocks the ChunkStore interface
type MockChunkStore struct {
	mock.Mock
}

func (m *MockChunkStore) Upsert(ctx context.Context, auditID, docID uuid.UUID, filename string, chunks []string, vectors [][]float32) error {
	args := m.Called(ctx, auditID, docID, filename, chunks, vectors)
	return args.Error(0)
}

// scriptedProvider streams a fixed sequence of deltas, optionally failing
// after a given number of them.
type scriptedProvider struct {
	name      string
	deltas    []string
	failAfter int // -1 means never fail
	failErr   error
}

func (p *scriptedProvider) Name() string {
	if p.name != "" {
		return p.name
	}
	return "scripted"
}

func (p *scriptedProvider) DefaultModel() string { return "scripted-1" }
func (p *scriptedProvider) IsConfigured() bool   { return true }

func (p *scriptedProvider) StreamChat(ctx context.Context, messages []llm.ChatMessage, model string, onDelta llm.DeltaFunc) error {
	for i, delta := range p.deltas {
		if p.failAfter >= 0 && i == p.failAfter {
			return p.failErr
		}
		if err := onDelta(delta); err != nil {
			return err
		}
	}
	if p.failAfter >= 0 && p.failAfter >= len(p.deltas) {
		return p.failErr
	}
	return nil
}
