package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	auditContextPrefix = "auditctx:"
	auditContextTTL    = 5 * time.Minute
)

// AuditContextCache caches the formatted audit context injected into chat
// prompts, so a busy conversation does not re-read the audit row per turn.
type AuditContextCache struct {
	client *Client
}

// NewAuditContextCache creates a new audit context cache
func NewAuditContextCache(client *Client) *AuditContextCache {
	return &AuditContextCache{client: client}
}

// Get retrieves the cached context for an audit; empty string means miss
func (c *AuditContextCache) Get(ctx context.Context, auditID uuid.UUID) (string, error) {
	val, err := c.client.rdb.Get(ctx, auditContextPrefix+auditID.String()).Result()
	if err != nil {
		return "", nil // cache miss
	}
	return val, nil
}

// Set caches the context for an audit
func (c *AuditContextCache) Set(ctx context.Context, auditID uuid.UUID, text string) error {
	return c.client.rdb.Set(ctx, auditContextPrefix+auditID.String(), text, auditContextTTL).Err()
}

// Invalidate removes the cached context for an audit, used after updates
func (c *AuditContextCache) Invalidate(ctx context.Context, auditID uuid.UUID) error {
	return c.client.rdb.Del(ctx, auditContextPrefix+auditID.String()).Err()
}
