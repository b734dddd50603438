package contract

import (
	"context"

	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/repository/specification"

	"github.com/google/uuid"
)

type GenerationJobRepository interface {
	Create(ctx context.Context, job *entity.GenerationJob) error
	// UpdateStatus is the worker-side transition write; it touches only
	// status, output, error_message and the started/finished timestamps.
	UpdateStatus(ctx context.Context, job *entity.GenerationJob) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.GenerationJob, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.GenerationJob, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
