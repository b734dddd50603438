package service

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"notebook-ai-be/internal/dto"
	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/pkg/logger"
	"notebook-ai-be/internal/repository/specification"
	"notebook-ai-be/internal/repository/unitofwork"
	"notebook-ai-be/pkg/embedding"
	"notebook-ai-be/pkg/events"
	pktNats "notebook-ai-be/pkg/nats"
	"notebook-ai-be/pkg/ocr"
	"notebook-ai-be/pkg/storage"
	"notebook-ai-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Chunk sizing: ~375 tokens per chunk keeps every chunk safely inside
// embedding context limits, with overlap to preserve boundary context.
const (
	ingestChunkSize    = 1500
	ingestChunkOverlap = 200
)

type IIngestionService interface {
	Consume(ctx context.Context) error
}

type ingestionService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	ocrProvider       ocr.Provider
	objectStore       storage.ObjectStore
	eventPublisher    *pktNats.Publisher
	logger            logger.ILogger
}

func NewIngestionService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	ocrProvider ocr.Provider,
	objectStore storage.ObjectStore,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IIngestionService {
	return &ingestionService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		ocrProvider:       ocrProvider,
		objectStore:       objectStore,
		eventPublisher:    eventPublisher,
		logger:            log,
	}
}

func (s *ingestionService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *ingestionService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IngestFileMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.logger.Error("ingestion", "malformed ingest message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // never retry an unparseable message
		return
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	file, err := uow.DocumentFileRepository().FindOne(ctx, specification.ByID{ID: payload.FileId})
	if err != nil {
		s.logger.Error("ingestion", "failed to load file", map[string]interface{}{"fileId": payload.FileId.String(), "error": err.Error()})
		msg.Nack()
		return
	}
	if file == nil {
		// Deleted between upload and processing. Nothing to do.
		msg.Ack()
		return
	}

	file.Status = entity.FileStatusProcessing
	if err := uow.DocumentFileRepository().Update(ctx, file); err != nil {
		s.logger.Error("ingestion", "failed to mark file processing", map[string]interface{}{"fileId": file.Id.String(), "error": err.Error()})
		msg.Nack()
		return
	}

	text, err := s.extractText(ctx, file)
	if err != nil {
		// Extraction failures are deterministic, retrying will not help.
		s.markFailed(ctx, uow, file, err)
		s.publishFileEvent(ctx, events.TypeFileIngestFailed, file, 0)
		msg.Ack()
		return
	}

	chunks := utils.ChunkText(text, ingestChunkSize, ingestChunkOverlap)
	s.logger.Info("ingestion", "file split for embedding", map[string]interface{}{
		"fileId": file.Id.String(),
		"chunks": len(chunks),
	})

	var docChunks []*entity.DocumentChunk
	for i, chunk := range chunks {
		vector, err := s.embeddingProvider.Generate(ctx, chunk, embedding.TaskRetrievalDocument)
		if err != nil {
			s.logger.Error("ingestion", "embedding failed", map[string]interface{}{
				"fileId": file.Id.String(),
				"chunk":  i,
				"error":  err.Error(),
			})
			msg.Nack() // provider errors are retriable
			return
		}
		docChunks = append(docChunks, &entity.DocumentChunk{
			Id:             uuid.New(),
			FileId:         file.Id,
			ChunkIndex:     i,
			Content:        chunk,
			EmbeddingValue: vector,
			CreatedAt:      time.Now(),
		})
	}

	if err := uow.Begin(ctx); err != nil {
		s.logger.Error("ingestion", "failed to begin transaction", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}
	defer uow.Rollback()

	// Reingestion replaces the previous chunk set wholesale.
	if err := uow.DocumentChunkRepository().DeleteByFileId(ctx, file.Id); err != nil {
		s.logger.Error("ingestion", "failed to delete old chunks", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}
	if len(docChunks) > 0 {
		if err := uow.DocumentChunkRepository().CreateBulk(ctx, docChunks); err != nil {
			s.logger.Error("ingestion", "failed to store chunks", map[string]interface{}{"error": err.Error()})
			msg.Nack()
			return
		}
	}

	file.Status = entity.FileStatusDone
	file.Content = text
	if err := uow.DocumentFileRepository().Update(ctx, file); err != nil {
		s.logger.Error("ingestion", "failed to mark file done", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		s.logger.Error("ingestion", "failed to commit", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}

	s.logger.Info("ingestion", "file ingested", map[string]interface{}{
		"fileId": file.Id.String(),
		"chunks": len(docChunks),
	})
	s.publishFileEvent(ctx, events.TypeFileIngested, file, len(docChunks))
	msg.Ack()
}

func (s *ingestionService) publishFileEvent(ctx context.Context, eventType string, file *entity.DocumentFile, chunkCount int) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.NewFileEvent(eventType, file.Id, file.NotebookId, chunkCount)
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("ingestion", "failed to publish file event", map[string]interface{}{
			"fileId": file.Id.String(),
			"error":  err.Error(),
		})
	}
}

func (s *ingestionService) extractText(ctx context.Context, file *entity.DocumentFile) (string, error) {
	obj, err := s.objectStore.Get(ctx, file.StorageKey)
	if err != nil {
		return "", err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return "", err
	}

	raw, err := s.ocrProvider.ExtractText(ctx, data, file.ContentType)
	if err != nil {
		return "", err
	}
	return ocr.NormalizeText(raw), nil
}

func (s *ingestionService) markFailed(ctx context.Context, uow unitofwork.UnitOfWork, file *entity.DocumentFile, cause error) {
	s.logger.Error("ingestion", "text extraction failed", map[string]interface{}{
		"fileId": file.Id.String(),
		"error":  cause.Error(),
	})
	file.Status = entity.FileStatusFailed
	if err := uow.DocumentFileRepository().Update(ctx, file); err != nil {
		s.logger.Error("ingestion", "failed to mark file failed", map[string]interface{}{"error": err.Error()})
	}
}
