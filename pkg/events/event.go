package events

import (
	"time"

	"github.com/google/uuid"
)

// Event codes published to the bus. Subscribers (notifications, audit)
// filter on these.
const (
	TypeFileIngested     = "FILE_INGESTED"
	TypeFileIngestFailed = "FILE_INGEST_FAILED"
	TypeJobFinished      = "GENERATION_JOB_FINISHED"
	TypeJobFailed        = "GENERATION_JOB_FAILED"
)

type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewJobEvent builds a generation job lifecycle event.
func NewJobEvent(eventType string, jobId, notebookId, userId uuid.UUID, jobType string) BaseEvent {
	return BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"job_id":      jobId.String(),
			"notebook_id": notebookId.String(),
			"user_id":     userId.String(),
			"job_type":    jobType,
		},
		OccurredAt: time.Now(),
	}
}

// NewFileEvent builds a document ingestion lifecycle event.
func NewFileEvent(eventType string, fileId, notebookId uuid.UUID, chunkCount int) BaseEvent {
	return BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"file_id":     fileId.String(),
			"notebook_id": notebookId.String(),
			"chunk_count": chunkCount,
		},
		OccurredAt: time.Now(),
	}
}
