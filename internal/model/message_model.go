package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Message struct {
	Id             uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationId uuid.UUID         `gorm:"type:uuid;not null;index"`
	NotebookId     uuid.UUID         `gorm:"type:uuid;not null;index"`
	Role           string            `gorm:"type:varchar(50);not null"`
	Content        string            `gorm:"type:text;not null"`
	Mode           string            `gorm:"type:varchar(50)"`
	ModelRef       string            `gorm:"type:varchar(100)"`
	ParentId       *uuid.UUID        `gorm:"type:uuid;index"`
	Context        datatypes.JSONMap `gorm:"type:jsonb"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt      time.Time         `gorm:"autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt    `gorm:"index"`
}

func (Message) TableName() string {
	return "messages"
}
