package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/audithq/audit-assist/internal/embedding"
)

// ChunkStore persists embedded document chunks for one audit.
type ChunkStore interface {
	Upsert(ctx context.Context, auditID, docID uuid.UUID, filename string, chunks []string, vectors [][]float32) error
}

// IngestResult describes a completed document ingestion.
type IngestResult struct {
	DocumentID uuid.UUID `json:"document_id"`
	Filename   string    `json:"filename"`
	Chunks     int       `json:"chunks"`
}

// DocumentService chunks, embeds and stores document text so chat retrieval
// can find it.
type DocumentService struct {
	embedder  embedding.Embedder
	store     ChunkStore
	chunkSize int
}

// NewDocumentService creates a new document service
func NewDocumentService(embedder embedding.Embedder, store ChunkStore, chunkSize int) *DocumentService {
	if chunkSize <= 0 {
		chunkSize = embedding.DefaultChunkSize
	}
	return &DocumentService{
		embedder:  embedder,
		store:     store,
		chunkSize: chunkSize,
	}
}

// IngestText ingests one document's text for an audit. The same filename
// re-ingested under the same audit replaces its previous chunks.
func (s *DocumentService) IngestText(ctx context.Context, auditID uuid.UUID, filename, text string) (*IngestResult, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, fmt.Errorf("filename is required")
	}

	chunks := embedding.ChunkText(text, s.chunkSize)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document contains no text")
	}

	vectors := make([][]float32, 0, len(chunks))
	for i, chunk := range chunks {
		vec, err := s.embedder.Embed(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk %d: %w", i, err)
		}
		vectors = append(vectors, vec)
	}

	// Document identity is derived from audit and filename, which makes
	// re-ingestion an overwrite.
	docID := uuid.NewSHA1(auditID, []byte(filename))

	if err := s.store.Upsert(ctx, auditID, docID, filename, chunks, vectors); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	log.Info().
		Str("audit_id", auditID.String()).
		Str("filename", filename).
		Int("chunks", len(chunks)).
		Msg("Ingested document")

	return &IngestResult{
		DocumentID: docID,
		Filename:   filename,
		Chunks:     len(chunks),
	}, nil
}
