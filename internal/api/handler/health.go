package handler

import (
	"context"
	"net/http"

	"github.com/audithq/audit-assist/internal/api/response"
	"github.com/audithq/audit-assist/internal/llm"
	"github.com/audithq/audit-assist/internal/vector"
)

// Pinger is satisfied by both database backends.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck reports database and vector store readiness. The vector store
// is optional, so it only affects the payload, not the status code.
func ReadyCheck(db Pinger, vectorClient *vector.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			response.ServiceUnavailable(w, "database not ready")
			return
		}

		vectorStatus := "disabled"
		if vectorClient != nil {
			vectorStatus = "unreachable"
			if vectorClient.Ready(r.Context()) {
				vectorStatus = "ready"
			}
		}

		response.OK(w, map[string]string{
			"status": "ready",
			"vector": vectorStatus,
		})
	}
}

// ListProviders returns the configured LLM providers
func ListProviders(router *llm.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]any{
			"providers":        router.ListProviders(),
			"default_provider": router.DefaultProvider(),
		})
	}
}
