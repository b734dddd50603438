package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentChunk is the unit of retrieval. Identity is (FileId, ChunkIndex).
type DocumentChunk struct {
	Id             uuid.UUID
	FileId         uuid.UUID
	ChunkIndex     int
	Content        string
	EmbeddingValue []float32
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
