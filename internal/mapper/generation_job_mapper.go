package mapper

import (
	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/model"

	"gorm.io/datatypes"
)

type GenerationJobMapper struct{}

func NewGenerationJobMapper() *GenerationJobMapper {
	return &GenerationJobMapper{}
}

func (m *GenerationJobMapper) ToEntity(j *model.GenerationJob) *entity.GenerationJob {
	if j == nil {
		return nil
	}
	return &entity.GenerationJob{
		Id:           j.Id,
		NotebookId:   j.NotebookId,
		UserId:       j.UserId,
		JobType:      j.JobType,
		Status:       j.Status,
		InputConfig:  map[string]interface{}(j.InputConfig),
		Output:       map[string]interface{}(j.Output),
		ErrorMessage: j.ErrorMessage,
		ModelRef:     j.ModelRef,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    nonZeroTime(j.UpdatedAt),
		StartedAt:    j.StartedAt,
		FinishedAt:   j.FinishedAt,
	}
}

func (m *GenerationJobMapper) ToModel(j *entity.GenerationJob) *model.GenerationJob {
	if j == nil {
		return nil
	}
	return &model.GenerationJob{
		Id:           j.Id,
		NotebookId:   j.NotebookId,
		UserId:       j.UserId,
		JobType:      j.JobType,
		Status:       j.Status,
		InputConfig:  datatypes.JSONMap(j.InputConfig),
		Output:       datatypes.JSONMap(j.Output),
		ErrorMessage: j.ErrorMessage,
		ModelRef:     j.ModelRef,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    derefTime(j.UpdatedAt),
		StartedAt:    j.StartedAt,
		FinishedAt:   j.FinishedAt,
	}
}
