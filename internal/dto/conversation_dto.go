package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateConversationRequest struct {
	NotebookId uuid.UUID `json:"notebook_id" validate:"required"`
	Title      string    `json:"title,omitempty" validate:"max=100"`
}

type CreateConversationResponse struct {
	Id    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type ConversationListItem struct {
	Id           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Preview      string     `json:"preview,omitempty"` // first user message excerpt
	MessageCount int64      `json:"message_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

type ListConversationsRequest struct {
	NotebookId uuid.UUID `json:"notebook_id" validate:"required"`
	Cursor     string    `json:"cursor,omitempty"` // RFC3339Nano updated_at of the last item seen
	Limit      int       `json:"limit,omitempty" validate:"max=100"`
}

type ListConversationsResponse struct {
	Items      []ConversationListItem `json:"items"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

type SetActiveConversationRequest struct {
	NotebookId     uuid.UUID `json:"notebook_id" validate:"required"`
	ConversationId uuid.UUID `json:"conversation_id" validate:"required"`
}

type ActiveConversationResponse struct {
	ConversationId uuid.UUID `json:"conversation_id"`
	LastOpenedAt   time.Time `json:"last_opened_at"`
}
