package dto

import "github.com/google/uuid"

// IngestFileMessage is the payload published to the file ingestion topic
// after an upload is accepted.
type IngestFileMessage struct {
	FileId uuid.UUID `json:"file_id"`
}

// GenerationJobMessage is the payload published to the generation job
// topic. The worker reloads the job row; the message only carries identity.
type GenerationJobMessage struct {
	JobId uuid.UUID `json:"job_id"`
}
