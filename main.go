package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/ai-financer/nlq-engine/pkg/config"
	"github.com/ai-financer/nlq-engine/pkg/database"
	"github.com/ai-financer/nlq-engine/pkg/handlers"
	"github.com/ai-financer/nlq-engine/pkg/llm"
	"github.com/ai-financer/nlq-engine/pkg/middleware"
	"github.com/ai-financer/nlq-engine/pkg/repositories"
	"github.com/ai-financer/nlq-engine/pkg/retrieval"
	"github.com/ai-financer/nlq-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("database", cfg.Database.Database),
		zap.String("database_host", cfg.Database.Host),
		zap.Bool("llm_available", cfg.LLM.IsAvailable()),
		zap.Bool("embeddings_available", cfg.LLM.EmbeddingsAvailable()))

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// golang-migrate wants database/sql; borrow a connection from the pool.
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	if err := database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("Failed to close migration connection", zap.Error(err))
	}

	registry := repositories.NewRegistryRepository(db)
	executor := repositories.NewQueryExecutor(db)

	var llmClient llm.LLMClient
	if cfg.LLM.IsAvailable() {
		client, err := llm.NewClient(&llm.Config{
			Endpoint:       cfg.LLM.Endpoint,
			Model:          cfg.LLM.Model,
			EmbeddingModel: cfg.LLM.EmbeddingModel,
			APIKey:         cfg.LLM.APIKey,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create LLM client", zap.Error(err))
		}
		llmClient = client
	} else {
		logger.Warn("No generative backend configured, using template fallback")
	}

	// Semantic retrieval needs both an embedding model and the vector store.
	var embeddings repositories.EmbeddingRepository
	if llmClient != nil && cfg.LLM.EmbeddingsAvailable() {
		embeddings = repositories.NewEmbeddingRepository(db)
	}

	retriever := retrieval.New(registry, embeddings, llmClient, cfg.NLQ.TopK, logger)
	contextBuilder := services.NewContextBuilder(registry, logger)
	fallback := services.NewFallbackGenerator(registry, logger)

	nlqService := services.NewNLQService(
		retriever,
		contextBuilder,
		fallback,
		registry,
		executor,
		llmClient,
		services.Options{
			DisambiguationThreshold: cfg.NLQ.DisambiguationThreshold,
			DefaultQueryLimit:       cfg.NLQ.DefaultQueryLimit,
			RequestTimeout:          time.Duration(cfg.NLQ.RequestTimeoutSeconds) * time.Second,
		},
		logger,
	)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewNLQHandler(nlqService, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := net.JoinHostPort(cfg.BindAddr, cfg.Port)
	logger.Info("Starting nlq-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
