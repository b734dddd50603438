package mapper

import (
	"time"

	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ConversationMapper struct{}

func NewConversationMapper() *ConversationMapper {
	return &ConversationMapper{}
}

func (m *ConversationMapper) ToEntity(c *model.Conversation) *entity.Conversation {
	if c == nil {
		return nil
	}
	return &entity.Conversation{
		Id:         c.Id,
		NotebookId: c.NotebookId,
		UserId:     c.UserId,
		Title:      c.Title,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  nonZeroTime(c.UpdatedAt),
		DeletedAt:  deletedAtPtr(c.DeletedAt),
		IsDeleted:  c.DeletedAt.Valid,
	}
}

func (m *ConversationMapper) ToModel(c *entity.Conversation) *model.Conversation {
	if c == nil {
		return nil
	}
	return &model.Conversation{
		Id:         c.Id,
		NotebookId: c.NotebookId,
		UserId:     c.UserId,
		Title:      c.Title,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  derefTime(c.UpdatedAt),
		DeletedAt:  toDeletedAt(c.DeletedAt, c.IsDeleted),
	}
}

type MessageMapper struct{}

func NewMessageMapper() *MessageMapper {
	return &MessageMapper{}
}

func (m *MessageMapper) ToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}
	return &entity.Message{
		Id:             msg.Id,
		ConversationId: msg.ConversationId,
		NotebookId:     msg.NotebookId,
		Role:           msg.Role,
		Content:        msg.Content,
		Mode:           msg.Mode,
		ModelRef:       msg.ModelRef,
		ParentId:       msg.ParentId,
		Context:        map[string]interface{}(msg.Context),
		Metadata:       map[string]interface{}(msg.Metadata),
		CreatedAt:      msg.CreatedAt,
		UpdatedAt:      nonZeroTime(msg.UpdatedAt),
		DeletedAt:      deletedAtPtr(msg.DeletedAt),
		IsDeleted:      msg.DeletedAt.Valid,
	}
}

func (m *MessageMapper) ToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}
	return &model.Message{
		Id:             msg.Id,
		ConversationId: msg.ConversationId,
		NotebookId:     msg.NotebookId,
		Role:           msg.Role,
		Content:        msg.Content,
		Mode:           msg.Mode,
		ModelRef:       msg.ModelRef,
		ParentId:       msg.ParentId,
		Context:        datatypes.JSONMap(msg.Context),
		Metadata:       datatypes.JSONMap(msg.Metadata),
		CreatedAt:      msg.CreatedAt,
		UpdatedAt:      derefTime(msg.UpdatedAt),
		DeletedAt:      toDeletedAt(msg.DeletedAt, msg.IsDeleted),
	}
}

type MessageSourceMapper struct{}

func NewMessageSourceMapper() *MessageSourceMapper {
	return &MessageSourceMapper{}
}

func (m *MessageSourceMapper) ToEntity(s *model.MessageSource) *entity.MessageSource {
	if s == nil {
		return nil
	}
	return &entity.MessageSource{
		Id:         s.Id,
		MessageId:  s.MessageId,
		SourceType: s.SourceType,
		Provider:   s.Provider,
		Score:      s.Score,
		FileId:     s.FileId,
		ChunkIndex: s.ChunkIndex,
		Content:    s.Content,
		Similarity: s.Similarity,
		Distance:   s.Distance,
		WebIndex:   s.WebIndex,
		Url:        s.Url,
		Title:      s.Title,
		Snippet:    s.Snippet,
		ImageUrl:   s.ImageUrl,
		CreatedAt:  s.CreatedAt,
	}
}

func (m *MessageSourceMapper) ToModel(s *entity.MessageSource) *model.MessageSource {
	if s == nil {
		return nil
	}
	return &model.MessageSource{
		Id:         s.Id,
		MessageId:  s.MessageId,
		SourceType: s.SourceType,
		Provider:   s.Provider,
		Score:      s.Score,
		FileId:     s.FileId,
		ChunkIndex: s.ChunkIndex,
		Content:    s.Content,
		Similarity: s.Similarity,
		Distance:   s.Distance,
		WebIndex:   s.WebIndex,
		Url:        s.Url,
		Title:      s.Title,
		Snippet:    s.Snippet,
		ImageUrl:   s.ImageUrl,
		CreatedAt:  s.CreatedAt,
	}
}

type MessageAttachmentMapper struct{}

func NewMessageAttachmentMapper() *MessageAttachmentMapper {
	return &MessageAttachmentMapper{}
}

func (m *MessageAttachmentMapper) ToEntity(a *model.MessageAttachment) *entity.MessageAttachment {
	if a == nil {
		return nil
	}
	return &entity.MessageAttachment{
		Id:          a.Id,
		MessageId:   a.MessageId,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		StorageKey:  a.StorageKey,
		Position:    a.Position,
		OcrText:     a.OcrText,
		OcrError:    a.OcrError,
		Metadata:    map[string]interface{}(a.Metadata),
		CreatedAt:   a.CreatedAt,
	}
}

func (m *MessageAttachmentMapper) ToModel(a *entity.MessageAttachment) *model.MessageAttachment {
	if a == nil {
		return nil
	}
	return &model.MessageAttachment{
		Id:          a.Id,
		MessageId:   a.MessageId,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		StorageKey:  a.StorageKey,
		Position:    a.Position,
		OcrText:     a.OcrText,
		OcrError:    a.OcrError,
		Metadata:    datatypes.JSONMap(a.Metadata),
		CreatedAt:   a.CreatedAt,
	}
}

type ConversationStateMapper struct{}

func NewConversationStateMapper() *ConversationStateMapper {
	return &ConversationStateMapper{}
}

func (m *ConversationStateMapper) ToEntity(s *model.ConversationState) *entity.ConversationState {
	if s == nil {
		return nil
	}
	return &entity.ConversationState{
		Id:             s.Id,
		UserId:         s.UserId,
		NotebookId:     s.NotebookId,
		ConversationId: s.ConversationId,
		LastOpenedAt:   s.LastOpenedAt,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      nonZeroTime(s.UpdatedAt),
	}
}

func (m *ConversationStateMapper) ToModel(s *entity.ConversationState) *model.ConversationState {
	if s == nil {
		return nil
	}
	return &model.ConversationState{
		Id:             s.Id,
		UserId:         s.UserId,
		NotebookId:     s.NotebookId,
		ConversationId: s.ConversationId,
		LastOpenedAt:   s.LastOpenedAt,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      derefTime(s.UpdatedAt),
	}
}

// shared conversion helpers

func nonZeroTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	out := t
	return &out
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func deletedAtPtr(d gorm.DeletedAt) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}

func toDeletedAt(t *time.Time, isDeleted bool) gorm.DeletedAt {
	if t != nil {
		return gorm.DeletedAt{Time: *t, Valid: true}
	}
	if isDeleted {
		return gorm.DeletedAt{Time: time.Now(), Valid: true}
	}
	return gorm.DeletedAt{}
}
