package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"notebook-ai-be/internal/dto"
	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/pkg/apperrors"
	"notebook-ai-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIngestTopic = "ingest-files"

func newDocumentFixture() (*fakeStore, *memoryObjectStore, *recordingPublisher, IDocumentService, uuid.UUID, uuid.UUID) {
	store := &fakeStore{}
	userId := uuid.New()
	notebookId := uuid.New()
	store.notebooks = append(store.notebooks, &entity.Notebook{Id: notebookId, UserId: userId, Name: "chemistry"})

	objects := newMemoryObjectStore()
	publisher := newRecordingPublisher()
	svc := NewDocumentService(
		newFakeUowFactory(store),
		objects,
		publisher,
		testIngestTopic,
		logger.NewIsolatedLogger("/tmp/document_service_test.log"),
	)
	return store, objects, publisher, svc, userId, notebookId
}

func TestDocumentUploadQueuesIngestion(t *testing.T) {
	store, objects, publisher, svc, userId, notebookId := newDocumentFixture()

	res, err := svc.Upload(context.Background(), userId, notebookId, "notes.pdf", "application/pdf", []byte("%PDF-1.4 fake"))
	require.NoError(t, err)

	assert.Equal(t, "notes.pdf", res.FileName)
	assert.Equal(t, entity.FileStatusQueued, res.Status)

	require.Len(t, store.files, 1)
	file := store.files[0]
	assert.Equal(t, res.Id, file.Id)
	assert.Equal(t, int64(len("%PDF-1.4 fake")), file.SizeBytes)
	assert.Contains(t, objects.objects, file.StorageKey)

	messages := publisher.published[testIngestTopic]
	require.Len(t, messages, 1)
	var msg dto.IngestFileMessage
	require.NoError(t, json.Unmarshal(messages[0], &msg))
	assert.Equal(t, res.Id, msg.FileId)
}

func TestDocumentUploadValidation(t *testing.T) {
	_, _, _, svc, userId, notebookId := newDocumentFixture()

	t.Run("empty name", func(t *testing.T) {
		_, err := svc.Upload(context.Background(), userId, notebookId, "", "text/plain", []byte("x"))
		require.Error(t, err)
		assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
	})

	t.Run("empty data", func(t *testing.T) {
		_, err := svc.Upload(context.Background(), userId, notebookId, "empty.txt", "text/plain", nil)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
	})

	t.Run("unknown notebook", func(t *testing.T) {
		_, err := svc.Upload(context.Background(), userId, uuid.New(), "notes.txt", "text/plain", []byte("x"))
		require.Error(t, err)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})
}

func TestDocumentListWithChunkCounts(t *testing.T) {
	store, _, _, svc, userId, notebookId := newDocumentFixture()

	fileId := uuid.New()
	store.files = append(store.files, &entity.DocumentFile{
		Id:         fileId,
		NotebookId: notebookId,
		UserId:     userId,
		Name:       "lecture.pdf",
		Status:     entity.FileStatusDone,
		SizeBytes:  2048,
		CreatedAt:  time.Now(),
	})
	for i := 0; i < 3; i++ {
		store.chunks = append(store.chunks, &entity.DocumentChunk{
			Id:         uuid.New(),
			FileId:     fileId,
			ChunkIndex: i,
		})
	}

	res, err := svc.List(context.Background(), userId, notebookId)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "lecture.pdf", res.Items[0].FileName)
	assert.Equal(t, int64(3), res.Items[0].ChunkCount)
	assert.Equal(t, entity.FileStatusDone, res.Items[0].Status)
}

func TestDocumentDelete(t *testing.T) {
	store, objects, _, svc, userId, notebookId := newDocumentFixture()

	fileId := uuid.New()
	storageKey := "documents/" + fileId.String() + "/old.txt"
	objects.objects[storageKey] = []byte("content")
	store.files = append(store.files, &entity.DocumentFile{
		Id:         fileId,
		NotebookId: notebookId,
		UserId:     userId,
		Name:       "old.txt",
		StorageKey: storageKey,
		Status:     entity.FileStatusDone,
		CreatedAt:  time.Now(),
	})
	store.chunks = append(store.chunks, &entity.DocumentChunk{Id: uuid.New(), FileId: fileId})

	t.Run("wrong notebook", func(t *testing.T) {
		err := svc.Delete(context.Background(), userId, uuid.New(), fileId)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
	})

	t.Run("not the uploader", func(t *testing.T) {
		err := svc.Delete(context.Background(), uuid.New(), notebookId, fileId)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	})

	t.Run("uploader deletes file, chunks and object", func(t *testing.T) {
		err := svc.Delete(context.Background(), userId, notebookId, fileId)
		require.NoError(t, err)
		assert.Empty(t, store.files)
		assert.Empty(t, store.chunks)
		assert.NotContains(t, objects.objects, storageKey)
	})

	t.Run("missing file", func(t *testing.T) {
		err := svc.Delete(context.Background(), userId, notebookId, fileId)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})
}
