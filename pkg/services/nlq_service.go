package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ai-financer/nlq-engine/pkg/apperrors"
	"github.com/ai-financer/nlq-engine/pkg/llm"
	"github.com/ai-financer/nlq-engine/pkg/models"
	"github.com/ai-financer/nlq-engine/pkg/repositories"
	"github.com/ai-financer/nlq-engine/pkg/retrieval"
	sqlguard "github.com/ai-financer/nlq-engine/pkg/sql"
)

// NLQService turns a natural-language question into a validated, executed,
// read-only query. Every failure is recovered into a structured error
// response carrying the resolved dataset and attempted SQL where known;
// nothing is retried automatically - retries are the caller's
// responsibility, via a rephrased question or an explicit dataset override.
type NLQService interface {
	// Query runs the full pipeline. The datasetID override, when present
	// among retrieval candidates, wins over ranking.
	Query(ctx context.Context, question, datasetID string) *models.QueryResponse

	// ListDatasets returns all registered datasets.
	ListDatasets(ctx context.Context) ([]*models.Dataset, error)
}

// Options holds pipeline tuning for the NLQ service.
type Options struct {
	DisambiguationThreshold float64
	DefaultQueryLimit       int
	RequestTimeout          time.Duration
}

type nlqService struct {
	retriever      retrieval.Retriever
	contextBuilder ContextBuilder
	fallback       *FallbackGenerator
	registry       repositories.RegistryRepository
	executor       repositories.QueryExecutor
	client         llm.LLMClient // nil when no generative backend is configured
	opts           Options
	logger         *zap.Logger
}

// NewNLQService creates the query orchestrator. A nil client selects the
// template fallback path for every question.
func NewNLQService(
	retriever retrieval.Retriever,
	contextBuilder ContextBuilder,
	fallback *FallbackGenerator,
	registry repositories.RegistryRepository,
	executor repositories.QueryExecutor,
	client llm.LLMClient,
	opts Options,
	logger *zap.Logger,
) NLQService {
	if opts.DefaultQueryLimit <= 0 {
		opts.DefaultQueryLimit = 1000
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	return &nlqService{
		retriever:      retriever,
		contextBuilder: contextBuilder,
		fallback:       fallback,
		registry:       registry,
		executor:       executor,
		client:         client,
		opts:           opts,
		logger:         logger.Named("nlq"),
	}
}

var _ NLQService = (*nlqService)(nil)

func (s *nlqService) ListDatasets(ctx context.Context) ([]*models.Dataset, error) {
	return s.registry.ListDatasets(ctx)
}

func (s *nlqService) Query(ctx context.Context, question, datasetID string) *models.QueryResponse {
	candidates, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		s.logger.Error("retrieval failed", zap.Error(err))
		return errorResponse(fmt.Sprintf("dataset retrieval failed: %v", err), "", "")
	}
	if len(candidates) == 0 {
		return errorResponse("No matching datasets found. Try rephrasing your question.", "", "")
	}

	decision := Disambiguate(candidates, datasetID, s.opts.DisambiguationThreshold)
	if decision.NeedsSelection {
		choices := make([]models.DatasetChoice, len(decision.Choices))
		for i, c := range decision.Choices {
			choices[i] = models.DatasetChoice{DatasetID: c.DatasetID, Label: c.Label, Why: c.Why}
		}
		return &models.QueryResponse{
			Status:  models.StatusNeedsSelection,
			Choices: choices,
			Message: "Which data source should I use?",
		}
	}

	resolved := decision.Selected.DatasetID
	s.logger.Debug("dataset resolved",
		zap.String("dataset_id", resolved),
		zap.Float64("score", decision.Selected.Score))

	grounding, err := s.contextBuilder.Build(ctx, resolved)
	if err != nil {
		s.logger.Error("context build failed", zap.String("dataset_id", resolved), zap.Error(err))
		return errorResponse(fmt.Sprintf("failed to build dataset context: %v", err), "", resolved)
	}

	if s.client == nil {
		return s.fallbackQuery(ctx, question, resolved)
	}

	genCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	prompt := fmt.Sprintf(userPromptTemplate, grounding, question)
	raw, err := s.client.GenerateResponse(genCtx, prompt, systemPrompt, 0)
	if err != nil {
		s.logger.Error("generation failed", zap.String("dataset_id", resolved), zap.Error(err))
		return errorResponse(fmt.Sprintf("SQL generation failed: %v", err), "", resolved)
	}

	parsed := llm.ParseSQLResponse(raw)
	switch parsed.Kind {
	case llm.ResponseClarification:
		return &models.QueryResponse{
			Status:             models.StatusNeedsClarification,
			ClarifyingQuestion: parsed.ClarifyingQuestion,
		}
	case llm.ResponseFailure:
		return errorResponse(parsed.FailureReason, "", resolved)
	}

	results, finalSQL, err := s.executeSQL(ctx, parsed.SQL)
	if err != nil {
		return errorResponse(err.Error(), finalSQL, resolved)
	}

	return &models.QueryResponse{
		Status:    models.StatusOK,
		DatasetID: resolved,
		SQL:       finalSQL,
		Results:   results,
		Explanation: &models.QueryExplanation{
			Tables:      orEmpty(parsed.TablesUsed),
			Assumptions: orEmpty(parsed.Assumptions),
			Notes:       parsed.Explanation,
		},
	}
}

// fallbackQuery answers with template SQL when no generative backend is
// configured.
func (s *nlqService) fallbackQuery(ctx context.Context, question, datasetID string) *models.QueryResponse {
	sqlQuery, err := s.fallback.Generate(ctx, question, datasetID)
	if err != nil {
		return errorResponse(fmt.Sprintf("fallback generation failed: %v", err), "", datasetID)
	}

	results, finalSQL, err := s.executeSQL(ctx, sqlQuery)
	if err != nil {
		return errorResponse(err.Error(), finalSQL, datasetID)
	}

	return &models.QueryResponse{
		Status:    models.StatusOK,
		DatasetID: datasetID,
		SQL:       finalSQL,
		Results:   results,
		Explanation: &models.QueryExplanation{
			Tables:      []string{},
			Assumptions: []string{},
			Notes:       "Fallback template SQL (no generative backend configured)",
		},
	}
}

// executeSQL applies limit injection, validates against the table
// allow-list, and executes. It returns the final statement alongside
// results so failures can preserve the attempted SQL.
func (s *nlqService) executeSQL(ctx context.Context, sqlQuery string) (*models.QueryResults, string, error) {
	finalSQL := sqlguard.EnsureLimit(sqlQuery, s.opts.DefaultQueryLimit)

	allowedTables, err := s.registry.ListAllTableNames(ctx)
	if err != nil {
		return nil, finalSQL, fmt.Errorf("failed to load table allow-list: %w", err)
	}

	if err := sqlguard.Validate(finalSQL, allowedTables); err != nil {
		s.logger.Warn("guardrail rejected SQL", zap.String("sql", finalSQL), zap.Error(err))
		return nil, finalSQL, fmt.Errorf("%w: %w", apperrors.ErrGuardrailViolation, err)
	}

	results, err := s.executor.Execute(ctx, finalSQL)
	if err != nil {
		s.logger.Error("execution failed", zap.String("sql", finalSQL), zap.Error(err))
		return nil, finalSQL, fmt.Errorf("%w: %w", apperrors.ErrExecutionFailure, err)
	}

	return results, finalSQL, nil
}

func errorResponse(message, sqlText, datasetID string) *models.QueryResponse {
	return &models.QueryResponse{
		Status:    models.StatusError,
		Message:   message,
		SQL:       sqlText,
		DatasetID: datasetID,
	}
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
