package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/audithq/audit-assist/internal/api/handler"
	customMiddleware "github.com/audithq/audit-assist/internal/api/middleware"
	"github.com/audithq/audit-assist/internal/domain"
	"github.com/audithq/audit-assist/internal/llm"
	"github.com/audithq/audit-assist/internal/repository/redis"
	"github.com/audithq/audit-assist/internal/service"
	"github.com/audithq/audit-assist/internal/vector"
)

// Deps carries the wired services the router exposes. Optional fields
// (RateLimiter, VectorClient, DocumentService) may be nil.
type Deps struct {
	DB              handler.Pinger
	SessionRepo     domain.SessionRepository
	MessageRepo     domain.MessageRepository
	ChatService     *service.ChatService
	AuditService    *service.AuditService
	DocumentService *service.DocumentService
	VectorClient    *vector.Client
	LLMRouter       *llm.Router
	RateLimiter     *redis.RateLimiter
}

// NewRouter creates and configures the HTTP router
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	chatHandler := handler.NewChatHandler(deps.ChatService)
	auditHandler := handler.NewAuditHandler(deps.AuditService)
	sessionHandler := handler.NewSessionHandler(deps.SessionRepo, deps.MessageRepo)
	documentHandler := handler.NewDocumentHandler(deps.DocumentService)

	r.Get("/health", handler.HealthCheck)
	r.Get("/ready", handler.ReadyCheck(deps.DB, deps.VectorClient))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(customMiddleware.RateLimit(deps.RateLimiter))

		// The chat stream outlives any sane request timeout, so it gets
		// its own group without one.
		r.Group(func(r chi.Router) {
			r.Post("/chat", chatHandler.Stream)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Get("/providers", handler.ListProviders(deps.LLMRouter))

			r.Route("/audits", func(r chi.Router) {
				r.Post("/", auditHandler.Create)
				r.Get("/", auditHandler.List)
				r.Get("/{id}", auditHandler.Get)
				r.Patch("/{id}", auditHandler.Update)
				r.Get("/{id}/sessions", auditHandler.ListSessions)
				r.Post("/{id}/documents", documentHandler.Ingest)
			})

			r.Route("/sessions", func(r chi.Router) {
				r.Get("/{id}/messages", sessionHandler.Messages)
			})
		})
	})

	return r
}
