package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateGenerationJobRequest triggers a background generation pipeline.
// Config is validated per job type against a closed key contract, e.g.
// summary jobs accept {fileIds, voiceId, language, additionalRequirements}.
type CreateGenerationJobRequest struct {
	NotebookId uuid.UUID              `json:"notebook_id" validate:"required"`
	JobType    string                 `json:"job_type" validate:"required"`
	Config     map[string]interface{} `json:"config,omitempty"`
}

type GenerationJobResponse struct {
	Id           uuid.UUID              `json:"id"`
	NotebookId   uuid.UUID              `json:"notebook_id"`
	JobType      string                 `json:"job_type"`
	Status       string                 `json:"status"`
	Output       map[string]interface{} `json:"output,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	ModelRef     string                 `json:"model_ref,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	StartedAt    *time.Time             `json:"started_at,omitempty"`
	FinishedAt   *time.Time             `json:"finished_at,omitempty"`
}

type ListGenerationJobsResponse struct {
	Items []GenerationJobResponse `json:"items"`
}
