package contract

import (
	"context"

	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MessageSourceRepository interface {
	CreateBulk(ctx context.Context, sources []*entity.MessageSource) error
	DeleteByMessageIds(ctx context.Context, messageIds []uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MessageSource, error)
	FindAllByMessageIds(ctx context.Context, messageIds []uuid.UUID) ([]*entity.MessageSource, error)
}
