package contract

import (
	"context"

	"notebook-ai-be/internal/entity"

	"github.com/google/uuid"
)

type ConversationStateRepository interface {
	// Upsert writes the single state row for (user, notebook) atomically,
	// keyed on the unique (user_id, notebook_id) index.
	Upsert(ctx context.Context, state *entity.ConversationState) error
	FindByUserAndNotebook(ctx context.Context, userId, notebookId uuid.UUID) (*entity.ConversationState, error)
	DeleteByUserAndNotebook(ctx context.Context, userId, notebookId uuid.UUID) error
	DeleteByConversationId(ctx context.Context, conversationId uuid.UUID) error
	FindAllByConversationId(ctx context.Context, conversationId uuid.UUID) ([]*entity.ConversationState, error)
}
