package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"notebook-ai-be/internal/dto"
	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/pkg/apperrors"
	"notebook-ai-be/internal/pkg/logger"
	"notebook-ai-be/internal/repository/specification"
	"notebook-ai-be/internal/repository/unitofwork"
	"notebook-ai-be/pkg/storage"

	"github.com/google/uuid"
)

type IDocumentService interface {
	Upload(ctx context.Context, userId uuid.UUID, notebookId uuid.UUID, fileName string, contentType string, data []byte) (*dto.UploadDocumentResponse, error)
	List(ctx context.Context, userId uuid.UUID, notebookId uuid.UUID) (*dto.ListDocumentsResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, notebookId uuid.UUID, fileId uuid.UUID) error
}

type documentService struct {
	uowFactory  unitofwork.RepositoryFactory
	objectStore storage.ObjectStore
	publisher   IPublisherService
	ingestTopic string
	logger      logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	objectStore storage.ObjectStore,
	publisher IPublisherService,
	ingestTopic string,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory:  uowFactory,
		objectStore: objectStore,
		publisher:   publisher,
		ingestTopic: ingestTopic,
		logger:      log,
	}
}

// Upload stores the raw bytes, records the file as queued and hands it
// to the ingestion topic. Text extraction and embedding happen in the
// consumer, never on the request path.
func (s *documentService) Upload(ctx context.Context, userId uuid.UUID, notebookId uuid.UUID, fileName string, contentType string, data []byte) (*dto.UploadDocumentResponse, error) {
	if fileName == "" {
		return nil, apperrors.BadRequest("file name is required")
	}
	if len(data) == 0 {
		return nil, apperrors.BadRequest("file is empty")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	notebook, err := uow.NotebookRepository().FindOne(ctx, specification.ByID{ID: notebookId})
	if err != nil {
		return nil, apperrors.Internal("failed to load notebook", err)
	}
	if notebook == nil {
		return nil, apperrors.NotFound("notebook not found")
	}

	fileId := uuid.New()
	storageKey := fmt.Sprintf("documents/%s/%s", fileId, fileName)
	if err := s.objectStore.Put(ctx, storageKey, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, apperrors.Internal("failed to store file", err)
	}

	file := &entity.DocumentFile{
		Id:          fileId,
		NotebookId:  notebookId,
		UserId:      userId,
		Name:        fileName,
		ContentType: contentType,
		StorageKey:  storageKey,
		SizeBytes:   int64(len(data)),
		Status:      entity.FileStatusQueued,
		CreatedAt:   time.Now(),
	}
	if err := uow.DocumentFileRepository().Create(ctx, file); err != nil {
		return nil, apperrors.Internal("failed to record file", err)
	}

	payload, err := json.Marshal(dto.IngestFileMessage{FileId: fileId})
	if err != nil {
		return nil, apperrors.Internal("failed to encode ingest message", err)
	}
	if err := s.publisher.Publish(ctx, s.ingestTopic, payload); err != nil {
		return nil, apperrors.Internal("failed to queue file for ingestion", err)
	}

	s.logger.Info("document", "file queued for ingestion", map[string]interface{}{
		"fileId":     fileId.String(),
		"notebookId": notebookId.String(),
		"sizeBytes":  len(data),
	})

	return &dto.UploadDocumentResponse{
		Id:       fileId,
		FileName: fileName,
		Status:   entity.FileStatusQueued,
	}, nil
}

func (s *documentService) List(ctx context.Context, userId uuid.UUID, notebookId uuid.UUID) (*dto.ListDocumentsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	notebook, err := uow.NotebookRepository().FindOne(ctx, specification.ByID{ID: notebookId})
	if err != nil {
		return nil, apperrors.Internal("failed to load notebook", err)
	}
	if notebook == nil {
		return nil, apperrors.NotFound("notebook not found")
	}

	files, err := uow.DocumentFileRepository().FindAll(ctx,
		specification.ByNotebookID{NotebookID: notebookId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, apperrors.Internal("failed to list files", err)
	}

	items := make([]dto.DocumentFileDTO, 0, len(files))
	for _, f := range files {
		chunkCount, err := uow.DocumentChunkRepository().Count(ctx, specification.ByFileID{FileID: f.Id})
		if err != nil {
			return nil, apperrors.Internal("failed to count chunks", err)
		}
		items = append(items, dto.DocumentFileDTO{
			Id:         f.Id,
			NotebookId: f.NotebookId,
			FileName:   f.Name,
			MimeType:   f.ContentType,
			SizeBytes:  f.SizeBytes,
			Status:     f.Status,
			ChunkCount: chunkCount,
			CreatedAt:  f.CreatedAt,
			UpdatedAt:  f.UpdatedAt,
		})
	}
	return &dto.ListDocumentsResponse{Items: items}, nil
}

func (s *documentService) Delete(ctx context.Context, userId uuid.UUID, notebookId uuid.UUID, fileId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	file, err := uow.DocumentFileRepository().FindOne(ctx, specification.ByID{ID: fileId})
	if err != nil {
		return apperrors.Internal("failed to load file", err)
	}
	if file == nil {
		return apperrors.NotFound("file not found")
	}
	if file.NotebookId != notebookId {
		return apperrors.BadRequest("file does not belong to this notebook")
	}
	if file.UserId != userId {
		return apperrors.Forbidden("only the uploader may delete a file")
	}

	if err := uow.Begin(ctx); err != nil {
		return apperrors.Internal("failed to begin transaction", err)
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByFileId(ctx, fileId); err != nil {
		return apperrors.Internal("failed to delete chunks", err)
	}
	if err := uow.DocumentFileRepository().Delete(ctx, fileId); err != nil {
		return apperrors.Internal("failed to delete file", err)
	}
	if err := uow.Commit(); err != nil {
		return apperrors.Internal("failed to commit delete", err)
	}

	// Object removal is best effort, the row is already gone.
	if err := s.objectStore.Delete(ctx, file.StorageKey); err != nil {
		s.logger.Warn("document", "failed to delete stored object", map[string]interface{}{
			"fileId": fileId.String(),
			"key":    file.StorageKey,
			"error":  err.Error(),
		})
	}
	return nil
}
