package implementation

import (
	"context"

	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/mapper"
	"notebook-ai-be/internal/model"
	"notebook-ai-be/internal/repository/contract"
	"notebook-ai-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageAttachmentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MessageAttachmentMapper
}

func NewMessageAttachmentRepository(db *gorm.DB) contract.MessageAttachmentRepository {
	return &MessageAttachmentRepositoryImpl{
		db:     db,
		mapper: mapper.NewMessageAttachmentMapper(),
	}
}

func (r *MessageAttachmentRepositoryImpl) CreateBulk(ctx context.Context, attachments []*entity.MessageAttachment) error {
	if len(attachments) == 0 {
		return nil
	}
	models := make([]*model.MessageAttachment, len(attachments))
	for i, a := range attachments {
		models[i] = r.mapper.ToModel(a)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*attachments[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *MessageAttachmentRepositoryImpl) DeleteByMessageIds(ctx context.Context, messageIds []uuid.UUID) error {
	if len(messageIds) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("message_id IN ?", messageIds).Delete(&model.MessageAttachment{}).Error
}

func (r *MessageAttachmentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MessageAttachment, error) {
	var models []*model.MessageAttachment
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.MessageAttachment, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *MessageAttachmentRepositoryImpl) FindAllByMessageIds(ctx context.Context, messageIds []uuid.UUID) ([]*entity.MessageAttachment, error) {
	if len(messageIds) == 0 {
		return []*entity.MessageAttachment{}, nil
	}
	var models []*model.MessageAttachment
	err := r.db.WithContext(ctx).
		Where("message_id IN ?", messageIds).
		Order("position ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.MessageAttachment, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}
