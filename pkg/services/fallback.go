package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ai-financer/nlq-engine/pkg/apperrors"
	"github.com/ai-financer/nlq-engine/pkg/repositories"
)

// FallbackGenerator produces SQL from a fixed keyword-to-template mapping
// when no generative backend is configured. A crude safety net, not a
// planner: it keeps the system answerable with zero external dependencies.
type FallbackGenerator struct {
	registry repositories.RegistryRepository
	logger   *zap.Logger
}

// NewFallbackGenerator creates a new FallbackGenerator.
func NewFallbackGenerator(registry repositories.RegistryRepository, logger *zap.Logger) *FallbackGenerator {
	return &FallbackGenerator{
		registry: registry,
		logger:   logger.Named("fallback"),
	}
}

// Generate maps delinquency, rate, and index vocabulary to their
// analytical tables, defaulting to a bounded scan of the dataset's first
// registered table. The state-level delinquency route is left unbounded
// here because limit injection caps it before execution; the metro route
// carries its own tighter limit, reflecting expected row-count asymmetry.
func (g *FallbackGenerator) Generate(ctx context.Context, question, datasetID string) (string, error) {
	tables, err := g.registry.ListTables(ctx, datasetID)
	if err != nil {
		return "", err
	}
	if len(tables) == 0 {
		return "", fmt.Errorf("dataset %s: %w", datasetID, apperrors.ErrNotFound)
	}

	q := strings.ToLower(question)

	var sqlQuery string
	switch {
	case strings.Contains(q, "delinquency") || strings.Contains(q, "30-89") || strings.Contains(q, "90"):
		if strings.Contains(q, "state") {
			sqlQuery = "SELECT * FROM cpfb_state_delinquency_30_89 WHERE date >= '2023-01-01' ORDER BY date DESC"
		} else {
			sqlQuery = "SELECT * FROM cpfb_metro_delinquency_30_89 WHERE date >= '2023-01-01' ORDER BY date DESC LIMIT 100"
		}
	case strings.Contains(q, "rate") || strings.Contains(q, "mortgage"):
		sqlQuery = "SELECT * FROM fred_mortgage_rates WHERE date >= '2023-01-01' ORDER BY date DESC LIMIT 100"
	case strings.Contains(q, "hpi") || strings.Contains(q, "house price") || strings.Contains(q, "index"):
		sqlQuery = "SELECT * FROM fhfa_hpi_state WHERE period >= '2023Q1' ORDER BY period DESC LIMIT 100"
	default:
		sqlQuery = fmt.Sprintf("SELECT * FROM %s LIMIT 100", tables[0].QualifiedName())
	}

	g.logger.Debug("generated fallback SQL",
		zap.String("dataset_id", datasetID),
		zap.String("sql", sqlQuery))

	return sqlQuery, nil
}
