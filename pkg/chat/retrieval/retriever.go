package retrieval

import (
	"context"
	"fmt"

	"notebook-ai-be/internal/pkg/logger"
	"notebook-ai-be/internal/repository/contract"
	"notebook-ai-be/pkg/embedding"

	"github.com/google/uuid"
)

// ChunkSearcher is the slice of the chunk repository the retriever needs.
type ChunkSearcher interface {
	SearchSimilarWithScore(ctx context.Context, embedding []float32, fileIds []uuid.UUID, limit int, threshold float64) ([]*contract.ScoredDocumentChunk, error)
}

// RetrievedChunk is one ranked passage of evidence for a turn.
type RetrievedChunk struct {
	FileId     uuid.UUID `json:"fileId"`
	ChunkIndex int       `json:"chunkIndex"`
	Content    string    `json:"content"`
	Similarity float64   `json:"similarity"`
	Distance   float64   `json:"distance"`
}

// Config bounds a retrieval pass.
type Config struct {
	TopK      int
	Threshold float64
}

func DefaultConfig() Config {
	return Config{
		TopK:      10,
		Threshold: 0.0,
	}
}

// Retriever embeds the query and ranks chunks inside the file allow-list.
type Retriever struct {
	embeddingProvider embedding.EmbeddingProvider
	searcher          ChunkSearcher
	logger            logger.ILogger
	config            Config
}

func NewRetriever(provider embedding.EmbeddingProvider, searcher ChunkSearcher, log logger.ILogger) *Retriever {
	return &Retriever{
		embeddingProvider: provider,
		searcher:          searcher,
		logger:            log,
		config:            DefaultConfig(),
	}
}

// Retrieve ranks chunks for the query. An empty allow-list short-circuits
// to an empty result without touching the embedding provider.
func (r *Retriever) Retrieve(ctx context.Context, query string, fileIds []uuid.UUID) ([]RetrievedChunk, error) {
	if len(fileIds) == 0 {
		return []RetrievedChunk{}, nil
	}

	queryVector, err := r.embeddingProvider.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := r.searcher.SearchSimilarWithScore(ctx, queryVector, fileIds, r.config.TopK, r.config.Threshold)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	chunks := make([]RetrievedChunk, 0, len(scored))
	for _, s := range scored {
		if s.Chunk == nil {
			continue
		}
		chunks = append(chunks, RetrievedChunk{
			FileId:     s.Chunk.FileId,
			ChunkIndex: s.Chunk.ChunkIndex,
			Content:    s.Chunk.Content,
			Similarity: s.Similarity,
			Distance:   s.Distance,
		})
	}

	r.logger.Debug("retriever", "retrieval pass complete", map[string]interface{}{
		"fileCount":  len(fileIds),
		"chunkCount": len(chunks),
	})

	return chunks, nil
}
