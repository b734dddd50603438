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

type MessageSourceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MessageSourceMapper
}

func NewMessageSourceRepository(db *gorm.DB) contract.MessageSourceRepository {
	return &MessageSourceRepositoryImpl{
		db:     db,
		mapper: mapper.NewMessageSourceMapper(),
	}
}

func (r *MessageSourceRepositoryImpl) CreateBulk(ctx context.Context, sources []*entity.MessageSource) error {
	if len(sources) == 0 {
		return nil
	}
	models := make([]*model.MessageSource, len(sources))
	for i, s := range sources {
		models[i] = r.mapper.ToModel(s)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*sources[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *MessageSourceRepositoryImpl) DeleteByMessageIds(ctx context.Context, messageIds []uuid.UUID) error {
	if len(messageIds) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("message_id IN ?", messageIds).Delete(&model.MessageSource{}).Error
}

func (r *MessageSourceRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MessageSource, error) {
	var models []*model.MessageSource
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.MessageSource, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *MessageSourceRepositoryImpl) FindAllByMessageIds(ctx context.Context, messageIds []uuid.UUID) ([]*entity.MessageSource, error) {
	if len(messageIds) == 0 {
		return []*entity.MessageSource{}, nil
	}
	var models []*model.MessageSource
	err := r.db.WithContext(ctx).
		Where("message_id IN ?", messageIds).
		Order("score DESC NULLS LAST").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.MessageSource, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}
