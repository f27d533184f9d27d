package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ai-financer/nlq-engine/pkg/apperrors"
)

func TestFallbackGenerate(t *testing.T) {
	gen := NewFallbackGenerator(registryFixture(), zap.NewNop())

	tests := []struct {
		name     string
		question string
		want     string
	}{
		{
			name:     "state delinquency",
			question: "show delinquency by state for 2023",
			want:     "SELECT * FROM cpfb_state_delinquency_30_89 WHERE date >= '2023-01-01' ORDER BY date DESC",
		},
		{
			name:     "metro delinquency",
			question: "30-89 day delinquency in metro areas",
			want:     "SELECT * FROM cpfb_metro_delinquency_30_89 WHERE date >= '2023-01-01' ORDER BY date DESC LIMIT 100",
		},
		{
			name:     "mortgage rates",
			question: "what are current mortgage rates",
			want:     "SELECT * FROM fred_mortgage_rates WHERE date >= '2023-01-01' ORDER BY date DESC LIMIT 100",
		},
		{
			name:     "house price index",
			question: "house price trends",
			want:     "SELECT * FROM fhfa_hpi_state WHERE period >= '2023Q1' ORDER BY period DESC LIMIT 100",
		},
		{
			name:     "unmatched question defaults to first table",
			question: "tell me something interesting",
			want:     "SELECT * FROM public.cpfb_state_delinquency_30_89 LIMIT 100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gen.Generate(context.Background(), tt.question, "cpfb_delinquency")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFallbackGenerateUnknownDataset(t *testing.T) {
	gen := NewFallbackGenerator(registryFixture(), zap.NewNop())

	_, err := gen.Generate(context.Background(), "anything", "no_such_dataset")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
