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

type DocumentFileRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentFileMapper
}

func NewDocumentFileRepository(db *gorm.DB) contract.DocumentFileRepository {
	return &DocumentFileRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentFileMapper(),
	}
}

func (r *DocumentFileRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DocumentFileRepositoryImpl) Create(ctx context.Context, file *entity.DocumentFile) error {
	m := r.mapper.ToModel(file)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*file = *r.mapper.ToEntity(m)
	return nil
}

func (r *DocumentFileRepositoryImpl) Update(ctx context.Context, file *entity.DocumentFile) error {
	m := r.mapper.ToModel(file)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*file = *r.mapper.ToEntity(m)
	return nil
}

func (r *DocumentFileRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.DocumentFile{}, id).Error
}

func (r *DocumentFileRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentFile, error) {
	var m model.DocumentFile
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *DocumentFileRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentFile, error) {
	var models []*model.DocumentFile
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.DocumentFile, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *DocumentFileRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.DocumentFile{}).Count(&count).Error
	return count, err
}
