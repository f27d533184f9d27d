// Package retrieval ranks registered datasets against a natural-language
// question.
package retrieval

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/ai-financer/nlq-engine/pkg/llm"
	"github.com/ai-financer/nlq-engine/pkg/models"
	"github.com/ai-financer/nlq-engine/pkg/repositories"
)

// Retriever returns the datasets most relevant to a question, most
// relevant first, at most top_k entries. Scores are non-increasing by
// position and internally consistent within one call; semantic and
// keyword scores are not comparable across strategies. An empty question
// or an empty registry yields an empty slice, not an error.
type Retriever interface {
	Retrieve(ctx context.Context, question string) ([]models.RetrievalCandidate, error)
}

// New selects the retrieval strategy once at startup: semantic when an
// embedding backend and index store are available, keyword overlap
// otherwise. Call sites depend only on the Retriever interface.
func New(
	registry repositories.RegistryRepository,
	embeddings repositories.EmbeddingRepository,
	client llm.LLMClient,
	topK int,
	logger *zap.Logger,
) Retriever {
	if client != nil && embeddings != nil {
		return NewSemanticRetriever(registry, embeddings, client, topK, logger)
	}
	return NewKeywordRetriever(registry, topK, logger)
}

// roundScore rounds to 4 decimal places, the precision candidates carry.
func roundScore(s float64) float64 {
	return math.Round(s*10000) / 10000
}

// sortCandidates orders candidates by score descending, stable so equal
// scores keep registry order and retrieval stays deterministic.
func sortCandidates(candidates []models.RetrievalCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}
