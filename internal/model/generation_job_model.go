package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type GenerationJob struct {
	Id           uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NotebookId   uuid.UUID         `gorm:"type:uuid;not null;index"`
	UserId       uuid.UUID         `gorm:"type:uuid;not null;index"`
	JobType      string            `gorm:"type:varchar(50);not null"`
	Status       string            `gorm:"type:varchar(50);not null;default:'queued'"`
	InputConfig  datatypes.JSONMap `gorm:"type:jsonb"`
	Output       datatypes.JSONMap `gorm:"type:jsonb"`
	ErrorMessage string            `gorm:"type:text"`
	ModelRef     string            `gorm:"type:varchar(100)"`
	CreatedAt    time.Time         `gorm:"autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime"`
	StartedAt    *time.Time
	FinishedAt   *time.Time
}

func (GenerationJob) TableName() string {
	return "generation_jobs"
}
