package model

import (
	"time"

	"github.com/google/uuid"
)

type MessageSource struct {
	Id         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MessageId  uuid.UUID  `gorm:"type:uuid;not null;index"`
	SourceType string     `gorm:"type:varchar(10);not null"` // RAG | WEB
	Provider   string     `gorm:"type:varchar(50)"`
	Score      *float64   `gorm:"type:numeric(3,2)"`
	FileId     *uuid.UUID `gorm:"type:uuid;index"`
	ChunkIndex *int
	Content    string `gorm:"type:text"`
	Similarity *float64
	Distance   *float64
	WebIndex   *int
	Url        string    `gorm:"type:text"`
	Title      string    `gorm:"type:text"`
	Snippet    string    `gorm:"type:text"`
	ImageUrl   string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`

	// Relationships
	Message *Message `gorm:"foreignKey:MessageId;references:Id;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (MessageSource) TableName() string {
	return "message_sources"
}
