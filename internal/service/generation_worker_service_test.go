package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"notebook-ai-be/internal/dto"
	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkerFixture(llmStub *stubGenerateLLM) (*fakeStore, *generationWorkerService) {
	store := &fakeStore{}
	svc := &generationWorkerService{
		topicName:   testJobTopic,
		uowFactory:  newFakeUowFactory(store),
		llmProvider: llmStub,
		modelRef:    "stub-model",
		logger:      logger.NewIsolatedLogger("/tmp/generation_worker_test.log"),
	}
	return store, svc
}

func seedQueuedJob(store *fakeStore, jobType string, config map[string]interface{}) *entity.GenerationJob {
	notebookId := uuid.New()
	job := &entity.GenerationJob{
		Id:          uuid.New(),
		NotebookId:  notebookId,
		UserId:      uuid.New(),
		JobType:     jobType,
		Status:      entity.JobStatusQueued,
		InputConfig: config,
		CreatedAt:   time.Now(),
	}
	store.jobs = append(store.jobs, job)
	store.files = append(store.files, &entity.DocumentFile{
		Id:         uuid.New(),
		NotebookId: notebookId,
		Name:       "chapter.pdf",
		Status:     entity.FileStatusDone,
		Content:    "The French Revolution began in 1789.",
		CreatedAt:  time.Now(),
	})
	return job
}

func jobMessage(t *testing.T, jobId uuid.UUID) *message.Message {
	t.Helper()
	payload, err := json.Marshal(dto.GenerationJobMessage{JobId: jobId})
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), payload)
}

func TestWorkerCompletesQuizJob(t *testing.T) {
	llmStub := &stubGenerateLLM{reply: `Here you go:
{"questions": [{"question": "When did the French Revolution begin?", "options": ["1789", "1815"], "answer_index": 0, "explanation": "Stated in the source."}]}`}
	store, svc := newWorkerFixture(llmStub)
	job := seedQueuedJob(store, entity.JobTypeQuiz, map[string]interface{}{"questionCount": float64(1)})

	msg := jobMessage(t, job.Id)
	svc.processMessage(context.Background(), msg)
	assertAcked(t, msg)

	got := store.jobs[0]
	assert.Equal(t, entity.JobStatusDone, got.Status)
	assert.Equal(t, "stub-model", got.ModelRef)
	require.NotNil(t, got.StartedAt)
	require.NotNil(t, got.FinishedAt)
	require.NotNil(t, got.Output)
	questions, ok := got.Output["questions"].([]interface{})
	require.True(t, ok)
	assert.Len(t, questions, 1)

	// The prompt carried the job contract and the ingested text.
	require.Len(t, llmStub.prompts, 1)
	prompt := llmStub.prompts[0]
	assert.Contains(t, prompt, "Write 1 quiz questions")
	assert.Contains(t, prompt, "## chapter.pdf")
	assert.Contains(t, prompt, "The French Revolution began in 1789.")
}

func TestWorkerScopesSourcesToConfiguredFiles(t *testing.T) {
	llmStub := &stubGenerateLLM{reply: `{"title": "t", "summary": "s", "key_points": []}`}
	store, svc := newWorkerFixture(llmStub)
	job := seedQueuedJob(store, entity.JobTypeSummary, nil)

	// A second ingested file in the same notebook, excluded by config.
	other := &entity.DocumentFile{
		Id:         uuid.New(),
		NotebookId: job.NotebookId,
		Name:       "appendix.pdf",
		Status:     entity.FileStatusDone,
		Content:    "Appendix material.",
		CreatedAt:  time.Now(),
	}
	store.files = append(store.files, other)
	job.InputConfig = map[string]interface{}{
		"fileIds": []interface{}{store.files[0].Id.String()},
	}

	msg := jobMessage(t, job.Id)
	svc.processMessage(context.Background(), msg)
	assertAcked(t, msg)

	require.Len(t, llmStub.prompts, 1)
	assert.Contains(t, llmStub.prompts[0], "chapter.pdf")
	assert.NotContains(t, llmStub.prompts[0], "Appendix material.")
}

func TestWorkerSkipsUnfinishedFiles(t *testing.T) {
	llmStub := &stubGenerateLLM{reply: `{"title": "t", "summary": "s", "key_points": []}`}
	store, svc := newWorkerFixture(llmStub)
	job := seedQueuedJob(store, entity.JobTypeSummary, nil)

	store.files = append(store.files, &entity.DocumentFile{
		Id:         uuid.New(),
		NotebookId: job.NotebookId,
		Name:       "pending.pdf",
		Status:     entity.FileStatusProcessing,
		Content:    "half extracted",
		CreatedAt:  time.Now(),
	})

	msg := jobMessage(t, job.Id)
	svc.processMessage(context.Background(), msg)
	assertAcked(t, msg)

	require.Len(t, llmStub.prompts, 1)
	assert.NotContains(t, llmStub.prompts[0], "half extracted")
}

func TestWorkerNoSourceMaterialFailsJob(t *testing.T) {
	llmStub := &stubGenerateLLM{reply: `{"ok": true}`}
	store, svc := newWorkerFixture(llmStub)
	job := seedQueuedJob(store, entity.JobTypeSummary, nil)
	store.files[0].Status = entity.FileStatusQueued // nothing ingested yet

	msg := jobMessage(t, job.Id)
	svc.processMessage(context.Background(), msg)

	// Deterministic failure lands on the job row, not in the queue.
	assertAcked(t, msg)
	got := store.jobs[0]
	assert.Equal(t, entity.JobStatusError, got.Status)
	assert.Contains(t, got.ErrorMessage, "no source material")
	assert.Empty(t, llmStub.prompts)
}

func TestWorkerModelFailureRecordedOnJob(t *testing.T) {
	llmStub := &stubGenerateLLM{err: fmt.Errorf("upstream 503")}
	store, svc := newWorkerFixture(llmStub)
	job := seedQueuedJob(store, entity.JobTypeFlashcards, nil)

	msg := jobMessage(t, job.Id)
	svc.processMessage(context.Background(), msg)
	assertAcked(t, msg)

	got := store.jobs[0]
	assert.Equal(t, entity.JobStatusError, got.Status)
	assert.Contains(t, got.ErrorMessage, "model call failed")
}

func TestWorkerNonJSONOutputFailsJob(t *testing.T) {
	llmStub := &stubGenerateLLM{reply: "I cannot answer that."}
	store, svc := newWorkerFixture(llmStub)
	job := seedQueuedJob(store, entity.JobTypeTimeline, nil)

	msg := jobMessage(t, job.Id)
	svc.processMessage(context.Background(), msg)
	assertAcked(t, msg)

	got := store.jobs[0]
	assert.Equal(t, entity.JobStatusError, got.Status)
	assert.Contains(t, got.ErrorMessage, "no JSON object")
}

func TestWorkerSkipsRedeliveredJob(t *testing.T) {
	llmStub := &stubGenerateLLM{reply: `{"ok": true}`}
	store, svc := newWorkerFixture(llmStub)
	job := seedQueuedJob(store, entity.JobTypeSummary, nil)
	job.Status = entity.JobStatusDone

	msg := jobMessage(t, job.Id)
	svc.processMessage(context.Background(), msg)
	assertAcked(t, msg)

	assert.Empty(t, llmStub.prompts, "a finished job must not run again")
	assert.Equal(t, entity.JobStatusDone, store.jobs[0].Status)
}

func TestWorkerRedeliveredProcessingJobMarkedInterrupted(t *testing.T) {
	llmStub := &stubGenerateLLM{reply: `{"ok": true}`}
	store, svc := newWorkerFixture(llmStub)
	job := seedQueuedJob(store, entity.JobTypeSummary, nil)
	job.Status = entity.JobStatusProcessing // previous run died mid-flight

	msg := jobMessage(t, job.Id)
	svc.processMessage(context.Background(), msg)
	assertAcked(t, msg)

	got := store.jobs[0]
	assert.Equal(t, entity.JobStatusError, got.Status)
	assert.Contains(t, got.ErrorMessage, "interrupted")
	require.NotNil(t, got.FinishedAt)
	assert.Empty(t, llmStub.prompts, "an interrupted job is not rerun")
}

func TestWorkerUnknownJobAcked(t *testing.T) {
	llmStub := &stubGenerateLLM{}
	_, svc := newWorkerFixture(llmStub)

	msg := jobMessage(t, uuid.New())
	svc.processMessage(context.Background(), msg)
	assertAcked(t, msg)
}

func TestBuildJobPromptRiders(t *testing.T) {
	job := &entity.GenerationJob{
		JobType: entity.JobTypeQuiz,
		InputConfig: map[string]interface{}{
			"questionCount": float64(5),
			"difficulty":    "hard",
			"language":      "German",
		},
	}

	prompt, err := buildJobPrompt(job, "source text")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Write 5 quiz questions")
	assert.Contains(t, prompt, "Target difficulty: hard")
	assert.Contains(t, prompt, "Write the output in German.")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(prompt), "</source_material>"))

	_, err = buildJobPrompt(&entity.GenerationJob{JobType: "podcast"}, "x")
	require.Error(t, err)
}
