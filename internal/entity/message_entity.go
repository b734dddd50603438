package entity

import (
	"time"

	"github.com/google/uuid"
)

// Message roles
const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

type Message struct {
	Id             uuid.UUID
	ConversationId uuid.UUID
	NotebookId     uuid.UUID
	Role           string
	Content        string
	Mode           string // grounding mode actually used (assistant messages)
	ModelRef       string // provider code that served the reply
	// ParentId links a reply to the message it answers. Resolving the chain
	// is an explicit lookup, never an eager preload.
	ParentId  *uuid.UUID
	Context   map[string]interface{}
	Metadata  map[string]interface{}
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
