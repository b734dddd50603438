package contract

import (
	"context"

	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ConversationMessageStats carries per-conversation aggregates for listing.
type ConversationMessageStats struct {
	ConversationId uuid.UUID
	MessageCount   int64
	FirstMessage   string
}

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	DeleteByConversationId(ctx context.Context, conversationId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// StatsByConversationIds returns message count plus the earliest user
	// message content for each conversation, in one round trip.
	StatsByConversationIds(ctx context.Context, conversationIds []uuid.UUID) (map[uuid.UUID]*ConversationMessageStats, error)
}
