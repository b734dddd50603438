package entity

import (
	"time"

	"github.com/google/uuid"
)

// Generation job types
const (
	JobTypeQuiz       = "quiz"
	JobTypeFlashcards = "flashcards"
	JobTypeSummary    = "summary"
	JobTypeTimeline   = "timeline"
	JobTypeAudio      = "audio"
	JobTypeVideo      = "video"
)

// Generation job statuses. After dispatch only the worker writes
// Status/Output/ErrorMessage.
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusDone       = "done"
	JobStatusError      = "error"
)

type GenerationJob struct {
	Id           uuid.UUID
	NotebookId   uuid.UUID
	UserId       uuid.UUID
	JobType      string
	Status       string
	InputConfig  map[string]interface{}
	Output       map[string]interface{}
	ErrorMessage string
	ModelRef     string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	StartedAt    *time.Time
	FinishedAt   *time.Time
}
