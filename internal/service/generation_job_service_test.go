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

const testJobTopic = "generation-jobs"

func newJobFixture() (*fakeStore, *recordingPublisher, IGenerationJobService, uuid.UUID, uuid.UUID) {
	store := &fakeStore{}
	userId := uuid.New()
	notebookId := uuid.New()
	store.notebooks = append(store.notebooks, &entity.Notebook{Id: notebookId, UserId: userId, Name: "history"})

	publisher := newRecordingPublisher()
	svc := NewGenerationJobService(
		newFakeUowFactory(store),
		publisher,
		testJobTopic,
		logger.NewIsolatedLogger("/tmp/generation_job_service_test.log"),
	)
	return store, publisher, svc, userId, notebookId
}

func TestGenerationJobCreateQueuesAndPublishes(t *testing.T) {
	store, publisher, svc, userId, notebookId := newJobFixture()

	res, err := svc.Create(context.Background(), userId, &dto.CreateGenerationJobRequest{
		NotebookId: notebookId,
		JobType:    entity.JobTypeQuiz,
		Config: map[string]interface{}{
			"questionCount": 10,
			"difficulty":    "medium",
			"language":      "en",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, entity.JobTypeQuiz, res.JobType)
	assert.Equal(t, entity.JobStatusQueued, res.Status)
	require.Len(t, store.jobs, 1)
	assert.Equal(t, res.Id, store.jobs[0].Id)

	messages := publisher.published[testJobTopic]
	require.Len(t, messages, 1)
	var msg dto.GenerationJobMessage
	require.NoError(t, json.Unmarshal(messages[0], &msg))
	assert.Equal(t, res.Id, msg.JobId)
}

func TestGenerationJobCreateConfigContract(t *testing.T) {
	tests := []struct {
		name    string
		jobType string
		config  map[string]interface{}
	}{
		{"unknown type", "podcast", nil},
		{"typoed key", entity.JobTypeQuiz, map[string]interface{}{"fileIDs": []string{}}},
		{"key from another type", entity.JobTypeTimeline, map[string]interface{}{"voiceId": "alloy"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, publisher, svc, userId, notebookId := newJobFixture()
			_, err := svc.Create(context.Background(), userId, &dto.CreateGenerationJobRequest{
				NotebookId: notebookId,
				JobType:    tc.jobType,
				Config:     tc.config,
			})
			require.Error(t, err)
			assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
			assert.Empty(t, store.jobs, "rejected job must not persist")
			assert.Empty(t, publisher.published[testJobTopic])
		})
	}
}

func TestGenerationJobCreateAcceptsEveryContractedType(t *testing.T) {
	_, _, svc, userId, notebookId := newJobFixture()

	for _, jobType := range []string{
		entity.JobTypeSummary,
		entity.JobTypeQuiz,
		entity.JobTypeFlashcards,
		entity.JobTypeTimeline,
		entity.JobTypeAudio,
		entity.JobTypeVideo,
	} {
		res, err := svc.Create(context.Background(), userId, &dto.CreateGenerationJobRequest{
			NotebookId: notebookId,
			JobType:    jobType,
			Config:     map[string]interface{}{"fileIds": []string{}},
		})
		require.NoError(t, err, jobType)
		assert.Equal(t, jobType, res.JobType)
	}
}

func TestGenerationJobCreateUnknownNotebook(t *testing.T) {
	_, _, svc, userId, _ := newJobFixture()

	_, err := svc.Create(context.Background(), userId, &dto.CreateGenerationJobRequest{
		NotebookId: uuid.New(),
		JobType:    entity.JobTypeSummary,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestGenerationJobGet(t *testing.T) {
	store, _, svc, userId, notebookId := newJobFixture()
	job := &entity.GenerationJob{
		Id:         uuid.New(),
		NotebookId: notebookId,
		UserId:     userId,
		JobType:    entity.JobTypeSummary,
		Status:     entity.JobStatusDone,
		Output:     map[string]interface{}{"summary": "short"},
		CreatedAt:  time.Now(),
	}
	store.jobs = append(store.jobs, job)

	t.Run("owner reads job with output", func(t *testing.T) {
		res, err := svc.Get(context.Background(), userId, job.Id)
		require.NoError(t, err)
		assert.Equal(t, entity.JobStatusDone, res.Status)
		assert.Equal(t, "short", res.Output["summary"])
	})

	t.Run("missing job", func(t *testing.T) {
		_, err := svc.Get(context.Background(), userId, uuid.New())
		require.Error(t, err)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})

	t.Run("other user is rejected", func(t *testing.T) {
		_, err := svc.Get(context.Background(), uuid.New(), job.Id)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	})
}

func TestGenerationJobListScopedToOwner(t *testing.T) {
	store, _, svc, userId, notebookId := newJobFixture()
	otherUser := uuid.New()

	store.jobs = append(store.jobs,
		&entity.GenerationJob{Id: uuid.New(), NotebookId: notebookId, UserId: userId, JobType: entity.JobTypeQuiz, Status: entity.JobStatusQueued, CreatedAt: time.Now()},
		&entity.GenerationJob{Id: uuid.New(), NotebookId: notebookId, UserId: otherUser, JobType: entity.JobTypeQuiz, Status: entity.JobStatusQueued, CreatedAt: time.Now()},
		&entity.GenerationJob{Id: uuid.New(), NotebookId: uuid.New(), UserId: userId, JobType: entity.JobTypeQuiz, Status: entity.JobStatusQueued, CreatedAt: time.Now()},
	)

	res, err := svc.List(context.Background(), userId, notebookId)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, store.jobs[0].Id, res.Items[0].Id)
}
