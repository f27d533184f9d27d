package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ai-financer/nlq-engine/pkg/models"
	"github.com/ai-financer/nlq-engine/pkg/repositories"
)

// ContextBuilder assembles the grounding payload for one dataset and
// renders it as a natural-language context block. This text is the only
// channel carrying schema truth to the generative backend: it includes
// every table of the active dataset and nothing outside it. Deterministic
// given the same registry contents; rebuilt per request, never cached.
type ContextBuilder interface {
	Build(ctx context.Context, datasetID string) (string, error)
}

type contextBuilder struct {
	registry repositories.RegistryRepository
	logger   *zap.Logger
}

// NewContextBuilder creates a new ContextBuilder.
func NewContextBuilder(registry repositories.RegistryRepository, logger *zap.Logger) ContextBuilder {
	return &contextBuilder{
		registry: registry,
		logger:   logger.Named("context"),
	}
}

var _ ContextBuilder = (*contextBuilder)(nil)

func (b *contextBuilder) Build(ctx context.Context, datasetID string) (string, error) {
	payload, err := b.load(ctx, datasetID)
	if err != nil {
		return "", err
	}
	return renderPayload(payload), nil
}

func (b *contextBuilder) load(ctx context.Context, datasetID string) (*models.GroundingPayload, error) {
	dataset, err := b.registry.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", datasetID, err)
	}

	tables, err := b.registry.ListTables(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("load tables for %s: %w", datasetID, err)
	}

	definitions, err := b.registry.ListDefinitions(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("load definitions for %s: %w", datasetID, err)
	}

	return &models.GroundingPayload{
		Dataset:     dataset,
		Tables:      tables,
		Definitions: definitions,
	}, nil
}

// renderPayload serializes the payload: dataset header, then tables in
// store-return order, then definitions in store-return order.
func renderPayload(payload *models.GroundingPayload) string {
	var lines []string

	ds := payload.Dataset
	if ds != nil {
		lines = append(lines, fmt.Sprintf("Dataset: %s (%s)", ds.Name, ds.Domain))
		lines = append(lines, fmt.Sprintf("Description: %s", ds.Description))
		grain := ds.Grain
		if grain == "" {
			grain = "N/A"
		}
		lines = append(lines, fmt.Sprintf("Grain: %s", grain))
	}

	for _, t := range payload.Tables {
		lines = append(lines, fmt.Sprintf("\nTable: %s", t.QualifiedName()))
		lines = append(lines, fmt.Sprintf("  Description: %s", t.Description))
		lines = append(lines, fmt.Sprintf("  Columns: %s", t.ImportantColumns))
		if t.ExampleFilters != "" {
			lines = append(lines, fmt.Sprintf("  Example filters: %s", t.ExampleFilters))
		}
	}

	for _, d := range payload.Definitions {
		lines = append(lines, fmt.Sprintf("\nDefinition - %s: %s", d.Term, d.Definition))
	}

	return strings.Join(lines, "\n")
}
