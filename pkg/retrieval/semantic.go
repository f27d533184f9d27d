package retrieval

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ai-financer/nlq-engine/pkg/llm"
	"github.com/ai-financer/nlq-engine/pkg/models"
	"github.com/ai-financer/nlq-engine/pkg/repositories"
)

// semanticQueryK caps how many index hits feed the per-dataset aggregation.
const semanticQueryK = 15

// semanticRetriever embeds the question and ranks datasets by summed
// similarity across every table and definition hit belonging to them.
type semanticRetriever struct {
	registry   repositories.RegistryRepository
	embeddings repositories.EmbeddingRepository
	client     llm.LLMClient
	topK       int
	logger     *zap.Logger

	// The index is built lazily on first use. Initialization is serialized
	// so concurrent first-use cannot populate it twice.
	indexMu sync.Mutex
	indexed bool
}

// NewSemanticRetriever creates an embedding-based retriever.
func NewSemanticRetriever(
	registry repositories.RegistryRepository,
	embeddings repositories.EmbeddingRepository,
	client llm.LLMClient,
	topK int,
	logger *zap.Logger,
) Retriever {
	return &semanticRetriever{
		registry:   registry,
		embeddings: embeddings,
		client:     client,
		topK:       topK,
		logger:     logger.Named("retrieval.semantic"),
	}
}

var _ Retriever = (*semanticRetriever)(nil)

func (r *semanticRetriever) Retrieve(ctx context.Context, question string) ([]models.RetrievalCandidate, error) {
	if strings.TrimSpace(question) == "" {
		return nil, nil
	}

	if err := r.ensureIndex(ctx); err != nil {
		return nil, err
	}

	queryEmbedding, err := r.client.CreateEmbedding(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	matches, err := r.embeddings.Query(ctx, queryEmbedding, semanticQueryK)
	if err != nil {
		return nil, err
	}

	// Aggregate one score per dataset: sum of (1 - distance) across all of
	// its hits.
	scores := make(map[string]float64)
	for _, m := range matches {
		scores[m.DatasetID] += 1 - m.Distance
	}
	if len(scores) == 0 {
		return nil, nil
	}

	datasets, err := r.registry.ListDatasets(ctx)
	if err != nil {
		return nil, err
	}
	info := make(map[string]*models.Dataset, len(datasets))
	for _, ds := range datasets {
		info[ds.ID] = ds
	}

	var candidates []models.RetrievalCandidate
	for datasetID, score := range scores {
		candidate := models.RetrievalCandidate{
			DatasetID: datasetID,
			Label:     datasetID,
			Score:     roundScore(score),
		}
		if ds, ok := info[datasetID]; ok {
			candidate.Label = ds.Name
			candidate.Why = ds.Description
		}
		candidates = append(candidates, candidate)
	}

	sortCandidates(candidates)
	if len(candidates) > r.topK {
		candidates = candidates[:r.topK]
	}

	r.logger.Debug("semantic retrieval",
		zap.Int("index_hits", len(matches)),
		zap.Int("candidates", len(candidates)))

	return candidates, nil
}

// ensureIndex builds the semantic index over registry metadata on first
// use. Idempotent: a non-empty index is left untouched.
func (r *semanticRetriever) ensureIndex(ctx context.Context) error {
	r.indexMu.Lock()
	defer r.indexMu.Unlock()

	if r.indexed {
		return nil
	}

	count, err := r.embeddings.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		r.indexed = true
		return nil
	}

	entries, err := r.collectEntries(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		r.indexed = true
		return nil
	}

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.text
	}

	vectors, err := r.client.CreateEmbeddings(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed registry metadata: %w", err)
	}
	if len(vectors) != len(entries) {
		return fmt.Errorf("embedding count mismatch: got %d for %d entries", len(vectors), len(entries))
	}

	for i, e := range entries {
		if err := r.embeddings.Upsert(ctx, e.id, e.datasetID, e.kind, e.text, vectors[i]); err != nil {
			return err
		}
	}

	r.logger.Info("built semantic index", zap.Int("entries", len(entries)))
	r.indexed = true
	return nil
}

type indexEntry struct {
	id        string
	datasetID string
	kind      string
	text      string
}

// collectEntries gathers one index entry per dataset, table, and domain
// definition, each tagged with its owning dataset.
func (r *semanticRetriever) collectEntries(ctx context.Context) ([]indexEntry, error) {
	datasets, err := r.registry.ListDatasets(ctx)
	if err != nil {
		return nil, err
	}

	var entries []indexEntry
	for _, ds := range datasets {
		entries = append(entries, indexEntry{
			id:        "ds_" + ds.ID,
			datasetID: ds.ID,
			kind:      "dataset",
			text:      fmt.Sprintf("Dataset %s (%s): %s", ds.Name, ds.Domain, ds.Description),
		})

		tables, err := r.registry.ListTables(ctx, ds.ID)
		if err != nil {
			return nil, err
		}
		for _, t := range tables {
			entries = append(entries, indexEntry{
				id:        fmt.Sprintf("t_%s_%s_%s", ds.ID, t.SchemaName, t.TableName),
				datasetID: ds.ID,
				kind:      "table",
				text:      fmt.Sprintf("Table %s: %s", t.QualifiedName(), t.Description),
			})
		}

		definitions, err := r.registry.ListDefinitions(ctx, ds.ID)
		if err != nil {
			return nil, err
		}
		for _, d := range definitions {
			entries = append(entries, indexEntry{
				id:        fmt.Sprintf("def_%s_%s", ds.ID, d.Term),
				datasetID: ds.ID,
				kind:      "definition",
				text:      fmt.Sprintf("Definition %s: %s", d.Term, d.Definition),
			})
		}
	}

	return entries, nil
}
