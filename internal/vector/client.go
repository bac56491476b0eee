package vector

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/audithq/audit-assist/internal/config"
	"github.com/audithq/audit-assist/internal/domain"
)

// ClassName is the Weaviate class holding audit document chunks.
const ClassName = "AuditDocument"

// ErrUnavailable is returned when the vector store cannot be reached.
var ErrUnavailable = errors.New("vector store unavailable")

// Client wraps the Weaviate client with the schema and queries used by
// audit-scoped retrieval.
type Client struct {
	client *weaviate.Client
}

// NewClient creates a Weaviate client from config. It does not probe the
// server; call Ready or EnsureSchema for that.
func NewClient(cfg config.VectorConfig) (*Client, error) {
	wc, err := weaviate.NewClient(weaviate.Config{
		Host:   cfg.Host,
		Scheme: cfg.Scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}
	return &Client{client: wc}, nil
}

// Ready reports whether the vector store answers its readiness probe
func (c *Client) Ready(ctx context.Context) bool {
	ok, err := c.client.Misc().ReadyChecker().Do(ctx)
	return err == nil && ok
}

// EnsureSchema creates the AuditDocument class if it does not exist.
// Vectors are supplied by the embedding layer, so the vectorizer is off.
func (c *Client) EnsureSchema(ctx context.Context) error {
	_, err := c.client.Schema().ClassGetter().WithClassName(ClassName).Do(ctx)
	if err == nil {
		return nil
	}

	class := &models.Class{
		Class:      ClassName,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "filename", DataType: []string{"text"}},
			{Name: "audit_id", DataType: []string{"text"}},
			{Name: "doc_id", DataType: []string{"text"}},
			{Name: "chunk_index", DataType: []string{"int"}},
		},
	}

	if err := c.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("failed to create class %s: %w", ClassName, err)
	}

	log.Info().Str("class", ClassName).Msg("Created vector schema")
	return nil
}

// Search runs a nearVector query scoped to a single audit and returns the
// matching chunks ordered by certainty.
func (c *Client) Search(ctx context.Context, vec []float32, auditID uuid.UUID, topK int, certainty float64) ([]domain.RetrievedChunk, error) {
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "filename"},
		{Name: "doc_id"},
		{Name: "chunk_index"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
	}

	where := filters.Where().
		WithPath([]string{"audit_id"}).
		WithOperator(filters.Equal).
		WithValueString(auditID.String())

	nearVector := c.client.GraphQL().NearVectorArgBuilder().
		WithVector(vec).
		WithCertainty(float32(certainty))

	resp, err := c.client.GraphQL().Get().
		WithClassName(ClassName).
		WithFields(fields...).
		WithWhere(where).
		WithNearVector(nearVector).
		WithLimit(topK).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("vector query failed: %s", resp.Errors[0].Message)
	}

	return parseChunks(resp.Data)
}

// Upsert replaces a document's chunks: the document's previous objects are
// batch-deleted by doc_id, then the new chunks are written in one batch.
// Deleting first keeps a shorter re-ingest from leaving stale higher-index
// chunks behind.
func (c *Client) Upsert(ctx context.Context, auditID uuid.UUID, docID uuid.UUID, filename string, chunks []string, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk count %d does not match vector count %d", len(chunks), len(vectors))
	}

	where := filters.Where().
		WithPath([]string{"doc_id"}).
		WithOperator(filters.Equal).
		WithValueString(docID.String())

	_, err := c.client.Batch().ObjectsBatchDeleter().
		WithClassName(ClassName).
		WithWhere(where).
		WithOutput("minimal").
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear previous chunks: %w", err)
	}

	objects := make([]*models.Object, len(chunks))
	for i, chunk := range chunks {
		objectID := uuid.NewSHA1(docID, []byte(strconv.Itoa(i)))
		objects[i] = &models.Object{
			Class:  ClassName,
			ID:     strfmt.UUID(objectID.String()),
			Vector: vectors[i],
			Properties: map[string]interface{}{
				"content":     chunk,
				"filename":    filename,
				"audit_id":    auditID.String(),
				"doc_id":      docID.String(),
				"chunk_index": i,
			},
		}
	}

	resp, err := c.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}
	for i, item := range resp {
		if item.Result != nil && item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
			return fmt.Errorf("failed to store chunk %d: %s", i, item.Result.Errors.Error[0].Message)
		}
	}

	log.Debug().
		Str("audit_id", auditID.String()).
		Str("filename", filename).
		Int("chunks", len(chunks)).
		Msg("Stored document chunks")
	return nil
}

func parseChunks(data map[string]models.JSONObject) ([]domain.RetrievedChunk, error) {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	objects, ok := get[ClassName].([]interface{})
	if !ok {
		return nil, nil
	}

	chunks := make([]domain.RetrievedChunk, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}
		chunk := domain.RetrievedChunk{}
		if s, ok := m["content"].(string); ok {
			chunk.Text = s
		}
		if s, ok := m["filename"].(string); ok {
			chunk.Filename = s
		}
		if s, ok := m["doc_id"].(string); ok {
			chunk.DocumentID = s
		}
		if n, ok := m["chunk_index"].(float64); ok {
			chunk.ChunkIndex = int(n)
		}
		if add, ok := m["_additional"].(map[string]interface{}); ok {
			if cert, ok := add["certainty"].(float64); ok {
				chunk.Score = cert
			}
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}
