package entity

import (
	"time"

	"github.com/google/uuid"
)

// Source types (discriminator for MessageSource)
const (
	SourceTypeRAG = "RAG"
	SourceTypeWEB = "WEB"
)

// MessageSource is a discriminated union: exactly one of the RAG fields
// (FileId, ChunkIndex) or the WEB fields (WebIndex, Url, Title, Snippet)
// is meaningful, selected by SourceType.
type MessageSource struct {
	Id            uuid.UUID
	MessageId     uuid.UUID
	SourceType    string
	Provider      string
	Score         *float64 // [0.00, 1.00], two decimals; nil when the model gave none

	// RAG variant
	FileId     *uuid.UUID
	ChunkIndex *int
	Content    string
	Similarity *float64
	Distance   *float64

	// WEB variant
	WebIndex *int
	Url      string
	Title    string
	Snippet  string
	ImageUrl string

	CreatedAt time.Time
}
