package retrieval

import (
	"context"
	"fmt"

	"github.com/ai-financer/nlq-engine/pkg/apperrors"
	"github.com/ai-financer/nlq-engine/pkg/models"
	"github.com/ai-financer/nlq-engine/pkg/repositories"
)

// fakeRegistry serves registry metadata from memory.
type fakeRegistry struct {
	datasets    []*models.Dataset
	tables      map[string][]*models.TableDescriptor
	definitions map[string][]*models.DomainDefinition
	err         error
}

var _ repositories.RegistryRepository = (*fakeRegistry)(nil)

func (f *fakeRegistry) ListDatasets(ctx context.Context) ([]*models.Dataset, error) {
	return f.datasets, f.err
}

func (f *fakeRegistry) GetDataset(ctx context.Context, datasetID string) (*models.Dataset, error) {
	for _, ds := range f.datasets {
		if ds.ID == datasetID {
			return ds, nil
		}
	}
	return nil, fmt.Errorf("dataset %s: %w", datasetID, apperrors.ErrNotFound)
}

func (f *fakeRegistry) ListTables(ctx context.Context, datasetID string) ([]*models.TableDescriptor, error) {
	return f.tables[datasetID], nil
}

func (f *fakeRegistry) ListDefinitions(ctx context.Context, datasetID string) ([]*models.DomainDefinition, error) {
	return f.definitions[datasetID], nil
}

func (f *fakeRegistry) ListAllTableNames(ctx context.Context) ([]string, error) {
	var names []string
	for _, tables := range f.tables {
		for _, t := range tables {
			names = append(names, t.TableName)
		}
	}
	return names, nil
}

// fakeEmbeddings is an in-memory stand-in for the vector index.
type fakeEmbeddings struct {
	upserts []string
	matches []repositories.EmbeddingMatch
	count   int64
}

var _ repositories.EmbeddingRepository = (*fakeEmbeddings)(nil)

func (f *fakeEmbeddings) Upsert(ctx context.Context, id, datasetID, kind, content string, embedding []float32) error {
	f.upserts = append(f.upserts, id)
	f.count++
	return nil
}

func (f *fakeEmbeddings) Query(ctx context.Context, embedding []float32, k int) ([]repositories.EmbeddingMatch, error) {
	if len(f.matches) > k {
		return f.matches[:k], nil
	}
	return f.matches, nil
}

func (f *fakeEmbeddings) Count(ctx context.Context) (int64, error) {
	return f.count, nil
}

func testDatasets() []*models.Dataset {
	return []*models.Dataset{
		{
			ID:          "cpfb_delinquency",
			Name:        "Mortgage Delinquency Rates",
			Domain:      "credit",
			Description: "State and metro level mortgage delinquency rates, 30-89 day and 90+ day buckets",
		},
		{
			ID:          "fred_rates",
			Name:        "Mortgage Interest Rates",
			Domain:      "rates",
			Description: "Weekly average 30-year fixed mortgage rates",
		},
		{
			ID:          "fhfa_hpi",
			Name:        "House Price Index",
			Domain:      "housing",
			Description: "Quarterly FHFA house price index by state",
		},
	}
}
