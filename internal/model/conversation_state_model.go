package model

import (
	"time"

	"github.com/google/uuid"
)

type ConversationState struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_states_user_notebook"`
	NotebookId     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_states_user_notebook"`
	ConversationId uuid.UUID `gorm:"type:uuid;not null;index"`
	LastOpenedAt   time.Time `gorm:"not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (ConversationState) TableName() string {
	return "conversation_states"
}
