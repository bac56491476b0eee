package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestIngestText_ChunksEmbedsAndStores(t *testing.T) {
	auditID := uuid.New()
	embedder := new(MockEmbedder)
	store := new(MockChunkStore)

	embedder.On("Embed", mock.Anything, mock.AnythingOfType("string")).Return([]float32{0.1, 0.2}, nil)
	store.On("Upsert", mock.Anything, auditID, mock.AnythingOfType("uuid.UUID"), "report.pdf",
		mock.AnythingOfType("[]string"), mock.AnythingOfType("[][]float32")).Return(nil)

	svc := NewDocumentService(embedder, store, 1500)

	text := strings.Repeat("The control operated effectively during the period. ", 100)
	result, err := svc.IngestText(context.Background(), auditID, "report.pdf", text)

	require.NoError(t, err)
	assert.Equal(t, "report.pdf", result.Filename)
	assert.Greater(t, result.Chunks, 1)
	embedder.AssertNumberOfCalls(t, "Embed", result.Chunks)
	store.AssertExpectations(t)
}

func TestIngestText_StableDocumentID(t *testing.T) {
	auditID := uuid.New()
	embedder := new(MockEmbedder)
	store := new(MockChunkStore)

	embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.5}, nil)
	store.On("Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewDocumentService(embedder, store, 1500)

	first, err := svc.IngestText(context.Background(), auditID, "memo.docx", "some text")
	require.NoError(t, err)
	second, err := svc.IngestText(context.Background(), auditID, "memo.docx", "revised text")
	require.NoError(t, err)

	assert.Equal(t, first.DocumentID, second.DocumentID, "re-ingesting the same filename must reuse the document id")

	other, err := svc.IngestText(context.Background(), uuid.New(), "memo.docx", "some text")
	require.NoError(t, err)
	assert.NotEqual(t, first.DocumentID, other.DocumentID, "same filename under another audit is a different document")
}

func TestIngestText_EmptyInputs(t *testing.T) {
	svc := NewDocumentService(new(MockEmbedder), new(MockChunkStore), 1500)

	_, err := svc.IngestText(context.Background(), uuid.New(), "", "text")
	assert.ErrorContains(t, err, "filename is required")

	_, err = svc.IngestText(context.Background(), uuid.New(), "empty.txt", "   \n ")
	assert.ErrorContains(t, err, "no text")
}

func TestIngestText_EmbedFailure(t *testing.T) {
	embedder := new(MockEmbedder)
	store := new(MockChunkStore)
	embedder.On("Embed", mock.Anything, mock.Anything).Return(nil, errors.New("rate limited"))

	svc := NewDocumentService(embedder, store, 1500)

	_, err := svc.IngestText(context.Background(), uuid.New(), "a.txt", "some text")

	assert.ErrorContains(t, err, "failed to embed chunk 0")
	store.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
