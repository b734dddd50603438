package implementation

import (
	"context"
	"errors"

	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/mapper"
	"notebook-ai-be/internal/model"
	"notebook-ai-be/internal/repository/contract"
	"notebook-ai-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MessageMapper
}

func NewMessageRepository(db *gorm.DB) contract.MessageRepository {
	return &MessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewMessageMapper(),
	}
}

func (r *MessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *MessageRepositoryImpl) Create(ctx context.Context, message *entity.Message) error {
	m := r.mapper.ToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.ToEntity(m)
	return nil
}

func (r *MessageRepositoryImpl) DeleteByConversationId(ctx context.Context, conversationId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("conversation_id = ?", conversationId).Delete(&model.Message{}).Error
}

func (r *MessageRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error) {
	var m model.Message
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *MessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	var models []*model.Message
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Message, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *MessageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Message{}).Count(&count).Error
	return count, err
}

func (r *MessageRepositoryImpl) StatsByConversationIds(ctx context.Context, conversationIds []uuid.UUID) (map[uuid.UUID]*contract.ConversationMessageStats, error) {
	stats := make(map[uuid.UUID]*contract.ConversationMessageStats, len(conversationIds))
	if len(conversationIds) == 0 {
		return stats, nil
	}

	type countRow struct {
		ConversationId uuid.UUID
		Total          int64
	}
	var counts []countRow
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Select("conversation_id, COUNT(*) as total").
		Where("conversation_id IN ?", conversationIds).
		Group("conversation_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		stats[c.ConversationId] = &contract.ConversationMessageStats{
			ConversationId: c.ConversationId,
			MessageCount:   c.Total,
		}
	}

	// Earliest user message per conversation, for previews.
	var firsts []model.Message
	err = r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (conversation_id) *
		     FROM messages
		     WHERE conversation_id IN ? AND role = ? AND deleted_at IS NULL
		     ORDER BY conversation_id, created_at ASC`,
			conversationIds, entity.MessageRoleUser).
		Scan(&firsts).Error
	if err != nil {
		return nil, err
	}
	for i := range firsts {
		m := firsts[i]
		if s, ok := stats[m.ConversationId]; ok {
			s.FirstMessage = m.Content
		} else {
			stats[m.ConversationId] = &contract.ConversationMessageStats{
				ConversationId: m.ConversationId,
				FirstMessage:   m.Content,
			}
		}
	}

	return stats, nil
}
