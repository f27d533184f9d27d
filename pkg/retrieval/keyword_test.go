package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestKeywordRetrieverRanksByOverlap(t *testing.T) {
	registry := &fakeRegistry{datasets: testDatasets()}
	retriever := NewKeywordRetriever(registry, 3, zap.NewNop())

	candidates, err := retriever.Retrieve(context.Background(), "mortgage delinquency rates by state")
	require.NoError(t, err)
	require.NotEmpty(t, candidates)

	assert.Equal(t, "cpfb_delinquency", candidates[0].DatasetID)
	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].Score, candidates[i].Score)
	}
}

func TestKeywordRetrieverExcludesZeroScores(t *testing.T) {
	registry := &fakeRegistry{datasets: testDatasets()}
	retriever := NewKeywordRetriever(registry, 3, zap.NewNop())

	candidates, err := retriever.Retrieve(context.Background(), "unemployment figures")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestKeywordRetrieverRespectsTopK(t *testing.T) {
	registry := &fakeRegistry{datasets: testDatasets()}
	retriever := NewKeywordRetriever(registry, 1, zap.NewNop())

	candidates, err := retriever.Retrieve(context.Background(), "mortgage rates")
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestKeywordRetrieverEmptyQuestion(t *testing.T) {
	registry := &fakeRegistry{datasets: testDatasets()}
	retriever := NewKeywordRetriever(registry, 3, zap.NewNop())

	candidates, err := retriever.Retrieve(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestKeywordRetrieverIgnoresShortWords(t *testing.T) {
	registry := &fakeRegistry{datasets: testDatasets()}
	retriever := NewKeywordRetriever(registry, 3, zap.NewNop())

	// "by" and "of" are too short to count; only "rates" can match.
	candidates, err := retriever.Retrieve(context.Background(), "by of rates")
	require.NoError(t, err)
	require.NotEmpty(t, candidates)
	for _, c := range candidates {
		assert.InDelta(t, 1.0/3.0, c.Score, 0.001)
	}
}

func TestKeywordRetrieverDeterministic(t *testing.T) {
	registry := &fakeRegistry{datasets: testDatasets()}
	retriever := NewKeywordRetriever(registry, 3, zap.NewNop())

	first, err := retriever.Retrieve(context.Background(), "mortgage rates")
	require.NoError(t, err)
	second, err := retriever.Retrieve(context.Background(), "mortgage rates")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
