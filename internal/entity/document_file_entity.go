package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document ingestion statuses, written only by the ingestion worker
// after upload.
const (
	FileStatusQueued     = "queued"
	FileStatusProcessing = "processing"
	FileStatusDone       = "done"
	FileStatusFailed     = "failed"
)

type DocumentFile struct {
	Id          uuid.UUID
	NotebookId  uuid.UUID
	UserId      uuid.UUID
	Name        string
	ContentType string
	StorageKey  string
	SizeBytes   int64
	Status      string
	Content     string // extracted text, source for chunking
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}
