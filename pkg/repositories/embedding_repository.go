package repositories

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/ai-financer/nlq-engine/pkg/database"
)

// EmbeddingMatch is one nearest-neighbor hit from the semantic index.
// Distance is cosine distance; smaller is closer.
type EmbeddingMatch struct {
	ID        string
	DatasetID string
	Kind      string
	Distance  float64
}

// EmbeddingRepository is the vector-index collaborator: metadata
// embeddings stored in postgres and ranked by cosine distance. Absence of
// an embedding backend is a supported mode handled upstream; this
// repository assumes the pgvector extension is installed.
type EmbeddingRepository interface {
	// Upsert stores or replaces the embedding for the given entry.
	Upsert(ctx context.Context, id, datasetID, kind, content string, embedding []float32) error

	// Query returns the k nearest entries to the given embedding.
	Query(ctx context.Context, embedding []float32, k int) ([]EmbeddingMatch, error)

	// Count returns the number of indexed entries.
	Count(ctx context.Context) (int64, error)
}

type embeddingRepository struct {
	db *database.DB
}

// NewEmbeddingRepository creates a new EmbeddingRepository.
func NewEmbeddingRepository(db *database.DB) EmbeddingRepository {
	return &embeddingRepository{db: db}
}

var _ EmbeddingRepository = (*embeddingRepository)(nil)

func (r *embeddingRepository) Upsert(ctx context.Context, id, datasetID, kind, content string, embedding []float32) error {
	query := `
		INSERT INTO nlq_metadata_embeddings (id, dataset_id, kind, content, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			dataset_id = EXCLUDED.dataset_id,
			kind = EXCLUDED.kind,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding`

	_, err := r.db.Exec(ctx, query, id, datasetID, kind, content, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("failed to upsert embedding %s: %w", id, err)
	}

	return nil
}

func (r *embeddingRepository) Query(ctx context.Context, embedding []float32, k int) ([]EmbeddingMatch, error) {
	query := `
		SELECT id, dataset_id, kind, embedding <=> $1 AS distance
		FROM nlq_metadata_embeddings
		ORDER BY embedding <=> $1
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer rows.Close()

	var matches []EmbeddingMatch
	for rows.Next() {
		var m EmbeddingMatch
		if err := rows.Scan(&m.ID, &m.DatasetID, &m.Kind, &m.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan embedding match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating embedding matches: %w", err)
	}

	return matches, nil
}

func (r *embeddingRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM nlq_metadata_embeddings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return count, nil
}
