package entity

import (
	"time"

	"github.com/google/uuid"
)

// ConversationState is the "currently open conversation" pointer.
// At most one row exists per (user, notebook).
type ConversationState struct {
	Id             uuid.UUID
	UserId         uuid.UUID
	NotebookId     uuid.UUID
	ConversationId uuid.UUID
	LastOpenedAt   time.Time
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}
