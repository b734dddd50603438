package contract

import (
	"context"

	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MessageAttachmentRepository interface {
	CreateBulk(ctx context.Context, attachments []*entity.MessageAttachment) error
	DeleteByMessageIds(ctx context.Context, messageIds []uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MessageAttachment, error)
	FindAllByMessageIds(ctx context.Context, messageIds []uuid.UUID) ([]*entity.MessageAttachment, error)
}
