package mapper

import (
	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type DocumentFileMapper struct{}

func NewDocumentFileMapper() *DocumentFileMapper {
	return &DocumentFileMapper{}
}

func (m *DocumentFileMapper) ToEntity(f *model.DocumentFile) *entity.DocumentFile {
	if f == nil {
		return nil
	}
	return &entity.DocumentFile{
		Id:          f.Id,
		NotebookId:  f.NotebookId,
		UserId:      f.UserId,
		Name:        f.Name,
		ContentType: f.ContentType,
		StorageKey:  f.StorageKey,
		SizeBytes:   f.SizeBytes,
		Status:      f.Status,
		Content:     f.Content,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   nonZeroTime(f.UpdatedAt),
		DeletedAt:   deletedAtPtr(f.DeletedAt),
		IsDeleted:   f.DeletedAt.Valid,
	}
}

func (m *DocumentFileMapper) ToModel(f *entity.DocumentFile) *model.DocumentFile {
	if f == nil {
		return nil
	}
	return &model.DocumentFile{
		Id:          f.Id,
		NotebookId:  f.NotebookId,
		UserId:      f.UserId,
		Name:        f.Name,
		ContentType: f.ContentType,
		StorageKey:  f.StorageKey,
		SizeBytes:   f.SizeBytes,
		Status:      f.Status,
		Content:     f.Content,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   derefTime(f.UpdatedAt),
		DeletedAt:   toDeletedAt(f.DeletedAt, f.IsDeleted),
	}
}

type DocumentChunkMapper struct{}

func NewDocumentChunkMapper() *DocumentChunkMapper {
	return &DocumentChunkMapper{}
}

func (m *DocumentChunkMapper) ToEntity(c *model.DocumentChunk) *entity.DocumentChunk {
	if c == nil {
		return nil
	}
	return &entity.DocumentChunk{
		Id:             c.Id,
		FileId:         c.FileId,
		ChunkIndex:     c.ChunkIndex,
		Content:        c.Content,
		EmbeddingValue: c.EmbeddingValue.Slice(),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      nonZeroTime(c.UpdatedAt),
		DeletedAt:      deletedAtPtr(c.DeletedAt),
		IsDeleted:      c.DeletedAt.Valid,
	}
}

func (m *DocumentChunkMapper) ToModel(c *entity.DocumentChunk) *model.DocumentChunk {
	if c == nil {
		return nil
	}
	return &model.DocumentChunk{
		Id:             c.Id,
		FileId:         c.FileId,
		ChunkIndex:     c.ChunkIndex,
		Content:        c.Content,
		EmbeddingValue: pgvector.NewVector(c.EmbeddingValue),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      derefTime(c.UpdatedAt),
		DeletedAt:      toDeletedAt(c.DeletedAt, c.IsDeleted),
	}
}

func (m *DocumentChunkMapper) ToEntities(chunks []*model.DocumentChunk) []*entity.DocumentChunk {
	entities := make([]*entity.DocumentChunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
