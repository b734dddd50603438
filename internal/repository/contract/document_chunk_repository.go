package contract

import (
	"context"

	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredDocumentChunk wraps a chunk with its cosine similarity and distance.
// Distance decreases monotonically as Similarity increases.
type ScoredDocumentChunk struct {
	Chunk      *entity.DocumentChunk
	Similarity float64 // [0, 1], 1 = identical
	Distance   float64 // cosine distance, 1 - similarity
}

type DocumentChunkRepository interface {
	Create(ctx context.Context, chunk *entity.DocumentChunk) error
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	DeleteByFileId(ctx context.Context, fileId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentChunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilarWithScore ranks chunks restricted to the given file IDs by
	// cosine similarity, highest first. An empty allow-list yields no rows.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, fileIds []uuid.UUID, limit int, threshold float64) ([]*ScoredDocumentChunk, error)
}
