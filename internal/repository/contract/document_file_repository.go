package contract

import (
	"context"

	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DocumentFileRepository interface {
	Create(ctx context.Context, file *entity.DocumentFile) error
	Update(ctx context.Context, file *entity.DocumentFile) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentFile, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentFile, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
