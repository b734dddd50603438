package implementation

import (
	"context"
	"errors"

	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/mapper"
	"notebook-ai-be/internal/model"
	"notebook-ai-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationStateRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationStateMapper
}

func NewConversationStateRepository(db *gorm.DB) contract.ConversationStateRepository {
	return &ConversationStateRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationStateMapper(),
	}
}

// Upsert relies on the unique (user_id, notebook_id) index so the
// read-then-write collapses into one atomic statement.
func (r *ConversationStateRepositoryImpl) Upsert(ctx context.Context, state *entity.ConversationState) error {
	m := r.mapper.ToModel(state)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "notebook_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"conversation_id", "last_opened_at", "updated_at"}),
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*state = *r.mapper.ToEntity(m)
	return nil
}

func (r *ConversationStateRepositoryImpl) FindByUserAndNotebook(ctx context.Context, userId, notebookId uuid.UUID) (*entity.ConversationState, error) {
	var m model.ConversationState
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND notebook_id = ?", userId, notebookId).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ConversationStateRepositoryImpl) DeleteByUserAndNotebook(ctx context.Context, userId, notebookId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND notebook_id = ?", userId, notebookId).
		Delete(&model.ConversationState{}).Error
}

func (r *ConversationStateRepositoryImpl) DeleteByConversationId(ctx context.Context, conversationId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationId).
		Delete(&model.ConversationState{}).Error
}

func (r *ConversationStateRepositoryImpl) FindAllByConversationId(ctx context.Context, conversationId uuid.UUID) ([]*entity.ConversationState, error) {
	var models []*model.ConversationState
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationId).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.ConversationState, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}
