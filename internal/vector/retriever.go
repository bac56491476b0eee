package vector

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/audithq/audit-assist/internal/config"
	"github.com/audithq/audit-assist/internal/domain"
	"github.com/audithq/audit-assist/internal/embedding"
)

// Retriever embeds a query and searches the vector store for audit-scoped
// document chunks.
type Retriever struct {
	embedder embedding.Embedder
	client   *Client
	cfg      config.RetrievalConfig
}

// NewRetriever creates a retriever over the given embedder and store
func NewRetriever(embedder embedding.Embedder, client *Client, cfg config.RetrievalConfig) *Retriever {
	return &Retriever{
		embedder: embedder,
		client:   client,
		cfg:      cfg,
	}
}

// Retrieve returns the chunks most similar to query within one audit
func (r *Retriever) Retrieve(ctx context.Context, auditID uuid.UUID, query string) ([]domain.RetrievedChunk, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if vec == nil {
		return nil, nil
	}
	return r.client.Search(ctx, vec, auditID, r.cfg.TopK, r.cfg.Certainty)
}
