package entity

import (
	"time"

	"github.com/google/uuid"
)

// MessageAttachment records one uploaded file of a user turn. OCR failure is
// captured in OcrError; the row is always persisted.
type MessageAttachment struct {
	Id          uuid.UUID
	MessageId   uuid.UUID
	FileName    string
	ContentType string
	StorageKey  string
	Position    int // stable order within the turn
	OcrText     string
	OcrError    string
	Metadata    map[string]interface{}
	CreatedAt   time.Time
}
