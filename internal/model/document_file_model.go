package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentFile struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NotebookId  uuid.UUID      `gorm:"type:uuid;not null;index"`
	UserId      uuid.UUID      `gorm:"type:uuid;not null;index"`
	Name        string         `gorm:"type:text;not null"`
	ContentType string         `gorm:"type:varchar(100)"`
	StorageKey  string         `gorm:"type:text"`
	SizeBytes   int64          `gorm:"not null;default:0"`
	Status      string         `gorm:"type:varchar(20);not null;default:'queued'"`
	Content     string         `gorm:"type:text"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (DocumentFile) TableName() string {
	return "document_files"
}
