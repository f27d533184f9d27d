package retrieval

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ai-financer/nlq-engine/pkg/models"
	"github.com/ai-financer/nlq-engine/pkg/repositories"
)

// keywordRetriever scores datasets by word overlap between the question
// and the dataset's name plus description. Used when no embedding backend
// is configured.
type keywordRetriever struct {
	registry repositories.RegistryRepository
	topK     int
	logger   *zap.Logger
}

// NewKeywordRetriever creates a keyword-overlap retriever.
func NewKeywordRetriever(registry repositories.RegistryRepository, topK int, logger *zap.Logger) Retriever {
	return &keywordRetriever{
		registry: registry,
		topK:     topK,
		logger:   logger.Named("retrieval.keyword"),
	}
}

var _ Retriever = (*keywordRetriever)(nil)

func (r *keywordRetriever) Retrieve(ctx context.Context, question string) ([]models.RetrievalCandidate, error) {
	words := strings.Fields(strings.ToLower(question))
	if len(words) == 0 {
		return nil, nil
	}

	datasets, err := r.registry.ListDatasets(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []models.RetrievalCandidate
	for _, ds := range datasets {
		text := strings.ToLower(ds.Name + " " + ds.Description)
		matched := 0
		for _, w := range words {
			if len(w) > 2 && strings.Contains(text, w) {
				matched++
			}
		}
		score := float64(matched) / float64(len(words))
		if score == 0 {
			continue
		}
		candidates = append(candidates, models.RetrievalCandidate{
			DatasetID: ds.ID,
			Label:     ds.Name,
			Why:       ds.Description,
			Score:     roundScore(score),
		})
	}

	sortCandidates(candidates)
	if len(candidates) > r.topK {
		candidates = candidates[:r.topK]
	}

	r.logger.Debug("keyword retrieval",
		zap.Int("question_words", len(words)),
		zap.Int("candidates", len(candidates)))

	return candidates, nil
}
