package dto

import (
	"time"

	"github.com/google/uuid"
)

// AttachmentInput is one uploaded file of a chat turn, already read out
// of the multipart form by the controller.
type AttachmentInput struct {
	FileName    string
	ContentType string
	Data        []byte
}

type SendChatRequest struct {
	NotebookId     uuid.UUID   `json:"notebook_id" validate:"required"`
	ConversationId uuid.UUID   `json:"conversation_id" validate:"required"`
	Text           string      `json:"text"`
	Mode           string      `json:"mode,omitempty"`     // empty = classify automatically
	Provider       string      `json:"provider,omitempty"` // empty = configured default
	FileIds        []uuid.UUID `json:"file_ids,omitempty"`

	Attachments []AttachmentInput `json:"-"`
}

type SourceDTO struct {
	Id         uuid.UUID  `json:"id"`
	SourceType string     `json:"source_type"`
	Provider   string     `json:"provider,omitempty"`
	Score      *float64   `json:"score,omitempty"`
	FileId     *uuid.UUID `json:"file_id,omitempty"`
	ChunkIndex *int       `json:"chunk_index,omitempty"`
	Content    string     `json:"content,omitempty"`
	Similarity *float64   `json:"similarity,omitempty"`
	Distance   *float64   `json:"distance,omitempty"`
	WebIndex   *int       `json:"web_index,omitempty"`
	Url        string     `json:"url,omitempty"`
	Title      string     `json:"title,omitempty"`
	Snippet    string     `json:"snippet,omitempty"`
	ImageUrl   string     `json:"image_url,omitempty"`
}

type AttachmentDTO struct {
	Id       uuid.UUID `json:"id"`
	FileName string    `json:"file_name"`
	MimeType string    `json:"mime_type"`
	OcrText  string    `json:"ocr_text,omitempty"`
	OcrError string    `json:"ocr_error,omitempty"`
	Position int       `json:"position"`
}

type ChatMessageDTO struct {
	Id          uuid.UUID       `json:"id"`
	Role        string          `json:"role"`
	Content     string          `json:"content"`
	Mode        string          `json:"mode,omitempty"`
	ModelRef    string          `json:"model_ref,omitempty"`
	Sources     []SourceDTO     `json:"sources,omitempty"`
	Attachments []AttachmentDTO `json:"attachments,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type SendChatResponse struct {
	ConversationId    uuid.UUID       `json:"conversation_id"`
	ConversationTitle string          `json:"conversation_title"`
	Mode              string          `json:"mode"`
	Sent              *ChatMessageDTO `json:"sent"`
	Reply             *ChatMessageDTO `json:"reply"`
}

type GetChatHistoryResponse struct {
	ConversationId uuid.UUID        `json:"conversation_id"`
	Messages       []ChatMessageDTO `json:"messages"`
}
