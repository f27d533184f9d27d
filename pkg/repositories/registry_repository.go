package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ai-financer/nlq-engine/pkg/apperrors"
	"github.com/ai-financer/nlq-engine/pkg/database"
	"github.com/ai-financer/nlq-engine/pkg/models"
)

// RegistryRepository provides read access to the dataset metadata registry.
// Registry rows are created by the schema bootstrap; the query pipeline
// never writes them.
type RegistryRepository interface {
	ListDatasets(ctx context.Context) ([]*models.Dataset, error)
	GetDataset(ctx context.Context, datasetID string) (*models.Dataset, error)
	ListTables(ctx context.Context, datasetID string) ([]*models.TableDescriptor, error)
	ListDefinitions(ctx context.Context, datasetID string) ([]*models.DomainDefinition, error)

	// ListAllTableNames returns every registered table name across all
	// datasets. This is the guardrail allow-list.
	ListAllTableNames(ctx context.Context) ([]string, error)
}

type registryRepository struct {
	db *database.DB
}

// NewRegistryRepository creates a new RegistryRepository.
func NewRegistryRepository(db *database.DB) RegistryRepository {
	return &registryRepository{db: db}
}

var _ RegistryRepository = (*registryRepository)(nil)

func (r *registryRepository) ListDatasets(ctx context.Context) ([]*models.Dataset, error) {
	query := `
		SELECT dataset_id, dataset_name, domain, description,
		       COALESCE(grain, ''), COALESCE(freshness_sla, ''), COALESCE(owner_team, '')
		FROM nlq_dataset_registry
		ORDER BY dataset_id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	var datasets []*models.Dataset
	for rows.Next() {
		ds := &models.Dataset{}
		if err := rows.Scan(&ds.ID, &ds.Name, &ds.Domain, &ds.Description,
			&ds.Grain, &ds.FreshnessSLA, &ds.OwnerTeam); err != nil {
			return nil, fmt.Errorf("failed to scan dataset row: %w", err)
		}
		datasets = append(datasets, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dataset rows: %w", err)
	}

	return datasets, nil
}

func (r *registryRepository) GetDataset(ctx context.Context, datasetID string) (*models.Dataset, error) {
	query := `
		SELECT dataset_id, dataset_name, domain, description,
		       COALESCE(grain, ''), COALESCE(freshness_sla, ''), COALESCE(owner_team, '')
		FROM nlq_dataset_registry
		WHERE dataset_id = $1`

	ds := &models.Dataset{}
	err := r.db.QueryRow(ctx, query, datasetID).Scan(
		&ds.ID, &ds.Name, &ds.Domain, &ds.Description,
		&ds.Grain, &ds.FreshnessSLA, &ds.OwnerTeam)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get dataset %s: %w", datasetID, err)
	}

	return ds, nil
}

func (r *registryRepository) ListTables(ctx context.Context, datasetID string) ([]*models.TableDescriptor, error) {
	query := `
		SELECT dataset_id, schema_name, table_name, table_desc,
		       COALESCE(primary_keys, ''), COALESCE(join_hints, ''),
		       COALESCE(important_cols, ''), COALESCE(example_filters, '')
		FROM nlq_table_registry
		WHERE dataset_id = $1
		ORDER BY schema_name, table_name`

	rows, err := r.db.Query(ctx, query, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables for dataset %s: %w", datasetID, err)
	}
	defer rows.Close()

	var tables []*models.TableDescriptor
	for rows.Next() {
		t := &models.TableDescriptor{}
		if err := rows.Scan(&t.DatasetID, &t.SchemaName, &t.TableName, &t.Description,
			&t.PrimaryKeys, &t.JoinHints, &t.ImportantColumns, &t.ExampleFilters); err != nil {
			return nil, fmt.Errorf("failed to scan table row: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table rows: %w", err)
	}

	return tables, nil
}

func (r *registryRepository) ListDefinitions(ctx context.Context, datasetID string) ([]*models.DomainDefinition, error) {
	query := `
		SELECT dataset_id, term, definition, COALESCE(formula_sql, ''), COALESCE(notes, '')
		FROM nlq_domain_definitions
		WHERE dataset_id = $1
		ORDER BY term`

	rows, err := r.db.Query(ctx, query, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions for dataset %s: %w", datasetID, err)
	}
	defer rows.Close()

	var definitions []*models.DomainDefinition
	for rows.Next() {
		d := &models.DomainDefinition{}
		if err := rows.Scan(&d.DatasetID, &d.Term, &d.Definition, &d.FormulaSQL, &d.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan definition row: %w", err)
		}
		definitions = append(definitions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating definition rows: %w", err)
	}

	return definitions, nil
}

func (r *registryRepository) ListAllTableNames(ctx context.Context) ([]string, error) {
	query := `SELECT table_name FROM nlq_table_registry ORDER BY table_name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list table names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table names: %w", err)
	}

	return names, nil
}
