package services

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
	tableNames  []string
	err         error
}

var _ repositories.RegistryRepository = (*fakeRegistry)(nil)

func (f *fakeRegistry) ListDatasets(ctx context.Context) ([]*models.Dataset, error) {
	return f.datasets, f.err
}

func (f *fakeRegistry) GetDataset(ctx context.Context, datasetID string) (*models.Dataset, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, ds := range f.datasets {
		if ds.ID == datasetID {
			return ds, nil
		}
	}
	return nil, fmt.Errorf("dataset %s: %w", datasetID, apperrors.ErrNotFound)
}

func (f *fakeRegistry) ListTables(ctx context.Context, datasetID string) ([]*models.TableDescriptor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tables[datasetID], nil
}

func (f *fakeRegistry) ListDefinitions(ctx context.Context, datasetID string) ([]*models.DomainDefinition, error) {
	return f.definitions[datasetID], nil
}

func (f *fakeRegistry) ListAllTableNames(ctx context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tableNames, nil
}

// fakeRetriever returns canned candidates.
type fakeRetriever struct {
	candidates []models.RetrievalCandidate
	err        error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, question string) ([]models.RetrievalCandidate, error) {
	return f.candidates, f.err
}

// fakeExecutor records the executed statement and returns canned results.
type fakeExecutor struct {
	results  *models.QueryResults
	err      error
	executed []string
}

var _ repositories.QueryExecutor = (*fakeExecutor)(nil)

func (f *fakeExecutor) Execute(ctx context.Context, sqlQuery string) (*models.QueryResults, error) {
	f.executed = append(f.executed, sqlQuery)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func registryFixture() *fakeRegistry {
	return &fakeRegistry{
		datasets: []*models.Dataset{
			{
				ID:          "cpfb_delinquency",
				Name:        "Mortgage Delinquency Rates",
				Domain:      "credit",
				Description: "State and metro level mortgage delinquency rates",
				Grain:       "state x month",
			},
			{
				ID:          "fred_rates",
				Name:        "Mortgage Interest Rates",
				Domain:      "rates",
				Description: "Weekly average 30-year fixed mortgage rates",
			},
		},
		tables: map[string][]*models.TableDescriptor{
			"cpfb_delinquency": {
				{
					DatasetID:        "cpfb_delinquency",
					SchemaName:       "public",
					TableName:        "cpfb_state_delinquency_30_89",
					Description:      "30-89 day delinquency by state",
					ImportantColumns: "date, state, value",
					ExampleFilters:   "state = 'CA'",
				},
				{
					DatasetID:        "cpfb_delinquency",
					SchemaName:       "public",
					TableName:        "cpfb_metro_delinquency_30_89",
					Description:      "30-89 day delinquency by metro area",
					ImportantColumns: "date, metro_area, value",
				},
			},
			"fred_rates": {
				{
					DatasetID:        "fred_rates",
					SchemaName:       "public",
					TableName:        "fred_mortgage_rates",
					Description:      "Weekly 30-year fixed mortgage rates",
					ImportantColumns: "date, value",
				},
			},
		},
		definitions: map[string][]*models.DomainDefinition{
			"cpfb_delinquency": {
				{DatasetID: "cpfb_delinquency", Term: "delinquency rate", Definition: "share of loans past due"},
			},
		},
		tableNames: []string{
			"cpfb_state_delinquency_30_89",
			"cpfb_metro_delinquency_30_89",
			"fred_mortgage_rates",
			"fhfa_hpi_state",
		},
	}
}
