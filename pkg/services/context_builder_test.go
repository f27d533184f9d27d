package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ai-financer/nlq-engine/pkg/apperrors"
	"github.com/ai-financer/nlq-engine/pkg/models"
)

func TestContextBuilderRendersDatasetTablesDefinitions(t *testing.T) {
	builder := NewContextBuilder(registryFixture(), zap.NewNop())

	rendered, err := builder.Build(context.Background(), "cpfb_delinquency")
	require.NoError(t, err)

	assert.Contains(t, rendered, "Dataset: Mortgage Delinquency Rates (credit)")
	assert.Contains(t, rendered, "Description: State and metro level mortgage delinquency rates")
	assert.Contains(t, rendered, "Grain: state x month")
	assert.Contains(t, rendered, "Table: public.cpfb_state_delinquency_30_89")
	assert.Contains(t, rendered, "  Columns: date, state, value")
	assert.Contains(t, rendered, "  Example filters: state = 'CA'")
	assert.Contains(t, rendered, "Definition - delinquency rate: share of loans past due")

	// Dataset header precedes tables, tables precede definitions.
	dsIdx := strings.Index(rendered, "Dataset:")
	tableIdx := strings.Index(rendered, "Table:")
	defIdx := strings.Index(rendered, "Definition -")
	assert.Less(t, dsIdx, tableIdx)
	assert.Less(t, tableIdx, defIdx)
}

func TestContextBuilderEmptyGrainRendersNA(t *testing.T) {
	builder := NewContextBuilder(registryFixture(), zap.NewNop())

	rendered, err := builder.Build(context.Background(), "fred_rates")
	require.NoError(t, err)

	assert.Contains(t, rendered, "Grain: N/A")
}

func TestContextBuilderOmitsEmptyExampleFilters(t *testing.T) {
	builder := NewContextBuilder(registryFixture(), zap.NewNop())

	rendered, err := builder.Build(context.Background(), "fred_rates")
	require.NoError(t, err)

	assert.NotContains(t, rendered, "Example filters:")
}

func TestContextBuilderScopedToOneDataset(t *testing.T) {
	builder := NewContextBuilder(registryFixture(), zap.NewNop())

	rendered, err := builder.Build(context.Background(), "fred_rates")
	require.NoError(t, err)

	assert.Contains(t, rendered, "fred_mortgage_rates")
	assert.NotContains(t, rendered, "cpfb_state_delinquency_30_89")
}

func TestContextBuilderUnknownDataset(t *testing.T) {
	builder := NewContextBuilder(registryFixture(), zap.NewNop())

	_, err := builder.Build(context.Background(), "no_such_dataset")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestContextBuilderDeterministic(t *testing.T) {
	builder := NewContextBuilder(registryFixture(), zap.NewNop())

	first, err := builder.Build(context.Background(), "cpfb_delinquency")
	require.NoError(t, err)
	second, err := builder.Build(context.Background(), "cpfb_delinquency")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRenderPayloadNilDataset(t *testing.T) {
	rendered := renderPayload(&models.GroundingPayload{
		Tables: []*models.TableDescriptor{
			{TableName: "fred_mortgage_rates", Description: "rates"},
		},
	})

	assert.Contains(t, rendered, "Table: fred_mortgage_rates")
	assert.NotContains(t, rendered, "Dataset:")
}
