package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type MessageAttachment struct {
	Id          uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MessageId   uuid.UUID         `gorm:"type:uuid;not null;index"`
	FileName    string            `gorm:"type:text;not null"`
	ContentType string            `gorm:"type:varchar(100)"`
	StorageKey  string            `gorm:"type:text"`
	Position    int               `gorm:"not null;default:0"`
	OcrText     string            `gorm:"type:text"`
	OcrError    string            `gorm:"type:text"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt   time.Time         `gorm:"autoCreateTime"`

	// Relationships
	Message *Message `gorm:"foreignKey:MessageId;references:Id;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (MessageAttachment) TableName() string {
	return "message_attachments"
}
