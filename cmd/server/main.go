package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/audithq/audit-assist/internal/api"
	"github.com/audithq/audit-assist/internal/api/handler"
	"github.com/audithq/audit-assist/internal/config"
	"github.com/audithq/audit-assist/internal/domain"
	"github.com/audithq/audit-assist/internal/embedding"
	"github.com/audithq/audit-assist/internal/llm"
	"github.com/audithq/audit-assist/internal/llm/echo"
	"github.com/audithq/audit-assist/internal/llm/gemini"
	"github.com/audithq/audit-assist/internal/llm/ollama"
	"github.com/audithq/audit-assist/internal/llm/openai"
	"github.com/audithq/audit-assist/internal/logging"
	"github.com/audithq/audit-assist/internal/repository/postgres"
	"github.com/audithq/audit-assist/internal/repository/redis"
	"github.com/audithq/audit-assist/internal/repository/sqlite"
	"github.com/audithq/audit-assist/internal/service"
	"github.com/audithq/audit-assist/internal/vector"
)

// store bundles the repositories of one database backend.
type store struct {
	pinger      handler.Pinger
	sessionRepo domain.SessionRepository
	messageRepo domain.MessageRepository
	auditRepo   domain.AuditRepository
	close       func()
}

func main() {
	// .env is optional; real deployments use environment variables
	if err := godotenv.Load(); err == nil {
		fmt.Println("Loaded .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := logging.Setup(cfg.Logging); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Driver).
		Msg("Starting audit assistant server")

	ctx := context.Background()

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer st.close()

	// Redis is optional: without it there is no rate limiting and no audit
	// context cache, but chat still works.
	var rateLimiter *redis.RateLimiter
	var contextCache *redis.AuditContextCache
	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, continuing without cache and rate limiting")
	} else {
		defer redisClient.Close()
		rateLimiter = redis.NewRateLimiter(redisClient, cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst)
		contextCache = redis.NewAuditContextCache(redisClient)
	}

	// The vector store and embedder are optional as a pair: retrieval and
	// document ingestion need both.
	var vectorClient *vector.Client
	var retriever service.Retriever
	var documentService *service.DocumentService
	if cfg.Vector.Host != "" && cfg.LLM.OpenAI.APIKey != "" {
		vectorClient, err = vector.NewClient(cfg.Vector)
		if err != nil {
			log.Warn().Err(err).Msg("Vector store unavailable, continuing without retrieval")
			vectorClient = nil
		} else if err := vectorClient.EnsureSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("Vector schema setup failed, continuing without retrieval")
			vectorClient = nil
		} else {
			embedder := embedding.NewOpenAIEmbedder(cfg.LLM.OpenAI)
			retriever = vector.NewRetriever(embedder, vectorClient, cfg.Retrieval)
			documentService = service.NewDocumentService(embedder, vectorClient, embedding.DefaultChunkSize)
		}
	} else {
		log.Warn().Msg("Vector store or embedding credentials not configured, retrieval disabled")
	}

	llmRouter := llm.NewRouter(cfg.LLM.DefaultProvider)
	llmRouter.RegisterProvider(openai.NewProvider(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model))
	llmRouter.RegisterProvider(gemini.NewProvider(cfg.LLM.Gemini))
	llmRouter.RegisterProvider(ollama.NewProvider(cfg.LLM.Ollama.Host, cfg.LLM.Ollama.DefaultModel))
	llmRouter.RegisterProvider(echo.NewProvider())

	auditService := service.NewAuditService(st.auditRepo, st.sessionRepo, contextCache)
	chatService := service.NewChatService(st.sessionRepo, st.messageRepo, retriever, auditService, llmRouter, cfg.Chat, cfg.Retrieval)

	router := api.NewRouter(api.Deps{
		DB:              st.pinger,
		SessionRepo:     st.sessionRepo,
		MessageRepo:     st.messageRepo,
		ChatService:     chatService,
		AuditService:    auditService,
		DocumentService: documentService,
		VectorClient:    vectorClient,
		LLMRouter:       llmRouter,
		RateLimiter:     rateLimiter,
	})

	// No WriteTimeout: the chat stream writes for as long as the
	// completion runs.
	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlite.NewDB(ctx, cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		return &store{
			pinger:      db,
			sessionRepo: sqlite.NewSessionRepository(db),
			messageRepo: sqlite.NewMessageRepository(db),
			auditRepo:   sqlite.NewAuditRepository(db),
			close:       db.Close,
		}, nil
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return &store{
			pinger:      db,
			sessionRepo: postgres.NewSessionRepository(db),
			messageRepo: postgres.NewMessageRepository(db),
			auditRepo:   postgres.NewAuditRepository(db),
			close:       db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Database.Driver)
	}
}
