package service

import (
	"context"
	"encoding/json"
	"time"

	"notebook-ai-be/internal/dto"
	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/pkg/apperrors"
	"notebook-ai-be/internal/pkg/logger"
	"notebook-ai-be/internal/repository/specification"
	"notebook-ai-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// jobConfigKeys is the closed key contract per job type. A config key
// outside the contract for its type is rejected, not ignored, so typos
// like "fileIDs" fail loudly instead of silently producing an
// unconstrained job.
var jobConfigKeys = map[string]map[string]bool{
	entity.JobTypeSummary: {
		"fileIds": true, "voiceId": true, "language": true, "additionalRequirements": true,
	},
	entity.JobTypeQuiz: {
		"fileIds": true, "questionCount": true, "difficulty": true, "language": true,
	},
	entity.JobTypeFlashcards: {
		"fileIds": true, "cardCount": true, "difficulty": true, "language": true,
	},
	entity.JobTypeTimeline: {
		"fileIds": true, "granularity": true,
	},
	entity.JobTypeAudio: {
		"fileIds": true, "voiceId": true, "language": true, "format": true,
	},
	entity.JobTypeVideo: {
		"fileIds": true, "voiceId": true, "language": true, "format": true,
	},
}

type IGenerationJobService interface {
	Create(ctx context.Context, userId uuid.UUID, request *dto.CreateGenerationJobRequest) (*dto.GenerationJobResponse, error)
	Get(ctx context.Context, userId uuid.UUID, jobId uuid.UUID) (*dto.GenerationJobResponse, error)
	List(ctx context.Context, userId uuid.UUID, notebookId uuid.UUID) (*dto.ListGenerationJobsResponse, error)
}

type generationJobService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  IPublisherService
	jobTopic   string
	logger     logger.ILogger
}

func NewGenerationJobService(
	uowFactory unitofwork.RepositoryFactory,
	publisher IPublisherService,
	jobTopic string,
	log logger.ILogger,
) IGenerationJobService {
	return &generationJobService{
		uowFactory: uowFactory,
		publisher:  publisher,
		jobTopic:   jobTopic,
		logger:     log,
	}
}

func (s *generationJobService) Create(ctx context.Context, userId uuid.UUID, request *dto.CreateGenerationJobRequest) (*dto.GenerationJobResponse, error) {
	allowed, ok := jobConfigKeys[request.JobType]
	if !ok {
		return nil, apperrors.BadRequest("unknown job type: %s", request.JobType)
	}
	for key := range request.Config {
		if !allowed[key] {
			return nil, apperrors.BadRequest("config key %q is not valid for job type %s", key, request.JobType)
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	notebook, err := uow.NotebookRepository().FindOne(ctx, specification.ByID{ID: request.NotebookId})
	if err != nil {
		return nil, apperrors.Internal("failed to load notebook", err)
	}
	if notebook == nil {
		return nil, apperrors.NotFound("notebook not found")
	}

	job := &entity.GenerationJob{
		Id:          uuid.New(),
		NotebookId:  request.NotebookId,
		UserId:      userId,
		JobType:     request.JobType,
		Status:      entity.JobStatusQueued,
		InputConfig: request.Config,
		CreatedAt:   time.Now(),
	}
	if err := uow.GenerationJobRepository().Create(ctx, job); err != nil {
		return nil, apperrors.Internal("failed to create job", err)
	}

	payload, err := json.Marshal(dto.GenerationJobMessage{JobId: job.Id})
	if err != nil {
		return nil, apperrors.Internal("failed to encode job message", err)
	}
	if err := s.publisher.Publish(ctx, s.jobTopic, payload); err != nil {
		return nil, apperrors.Internal("failed to queue job", err)
	}

	s.logger.Info("generation", "job queued", map[string]interface{}{
		"jobId":   job.Id.String(),
		"jobType": job.JobType,
	})
	return toJobResponse(job), nil
}

func (s *generationJobService) Get(ctx context.Context, userId uuid.UUID, jobId uuid.UUID) (*dto.GenerationJobResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	job, err := uow.GenerationJobRepository().FindOne(ctx, specification.ByID{ID: jobId})
	if err != nil {
		return nil, apperrors.Internal("failed to load job", err)
	}
	if job == nil {
		return nil, apperrors.NotFound("job not found")
	}
	if job.UserId != userId {
		return nil, apperrors.Forbidden("job belongs to another user")
	}
	return toJobResponse(job), nil
}

func (s *generationJobService) List(ctx context.Context, userId uuid.UUID, notebookId uuid.UUID) (*dto.ListGenerationJobsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	jobs, err := uow.GenerationJobRepository().FindAll(ctx,
		specification.ByNotebookID{NotebookID: notebookId},
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, apperrors.Internal("failed to list jobs", err)
	}

	items := make([]dto.GenerationJobResponse, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, *toJobResponse(job))
	}
	return &dto.ListGenerationJobsResponse{Items: items}, nil
}

func toJobResponse(job *entity.GenerationJob) *dto.GenerationJobResponse {
	return &dto.GenerationJobResponse{
		Id:           job.Id,
		NotebookId:   job.NotebookId,
		JobType:      job.JobType,
		Status:       job.Status,
		Output:       job.Output,
		ErrorMessage: job.ErrorMessage,
		ModelRef:     job.ModelRef,
		CreatedAt:    job.CreatedAt,
		StartedAt:    job.StartedAt,
		FinishedAt:   job.FinishedAt,
	}
}
