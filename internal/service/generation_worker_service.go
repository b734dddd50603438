package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"notebook-ai-be/internal/dto"
	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/pkg/logger"
	"notebook-ai-be/internal/repository/specification"
	"notebook-ai-be/internal/repository/unitofwork"
	"notebook-ai-be/pkg/chat/parser"
	"notebook-ai-be/pkg/events"
	"notebook-ai-be/pkg/llm"
	pktNats "notebook-ai-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// maxJobSourceRunes caps how much document text is fed to the model for
// one job.
const maxJobSourceRunes = 60000

type IGenerationWorkerService interface {
	Consume(ctx context.Context) error
}

type generationWorkerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	llmProvider    llm.LLMProvider
	modelRef       string
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
}

func NewGenerationWorkerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	modelRef string,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IGenerationWorkerService {
	return &generationWorkerService{
		pubSub:         pubSub,
		topicName:      topicName,
		uowFactory:     uowFactory,
		llmProvider:    llmProvider,
		modelRef:       modelRef,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *generationWorkerService) Consume(ctx context.Context) error {
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

func (s *generationWorkerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.GenerationJobMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.logger.Error("generation", "malformed job message", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	job, err := uow.GenerationJobRepository().FindOne(ctx, specification.ByID{ID: payload.JobId})
	if err != nil {
		s.logger.Error("generation", "failed to load job", map[string]interface{}{"jobId": payload.JobId.String(), "error": err.Error()})
		msg.Nack()
		return
	}
	if job == nil {
		msg.Ack()
		return
	}
	switch job.Status {
	case entity.JobStatusQueued:
		// Fresh dispatch, run it.
	case entity.JobStatusProcessing:
		// Redelivery of a run that died before it could finalize. The
		// job would otherwise sit in processing forever.
		now := time.Now()
		job.Status = entity.JobStatusError
		job.ErrorMessage = "job interrupted before completion"
		job.FinishedAt = &now
		if err := uow.GenerationJobRepository().UpdateStatus(ctx, job); err != nil {
			s.logger.Error("generation", "failed to mark interrupted job", map[string]interface{}{"jobId": job.Id.String(), "error": err.Error()})
			msg.Nack()
			return
		}
		s.publishLifecycleEvent(ctx, job)
		msg.Ack()
		return
	default:
		// Already finished. Skip.
		msg.Ack()
		return
	}

	now := time.Now()
	job.Status = entity.JobStatusProcessing
	job.StartedAt = &now
	job.ModelRef = s.modelRef
	if err := uow.GenerationJobRepository().UpdateStatus(ctx, job); err != nil {
		s.logger.Error("generation", "failed to mark job processing", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}

	output, runErr := s.runJob(ctx, uow, job)

	finished := time.Now()
	job.FinishedAt = &finished
	if runErr != nil {
		job.Status = entity.JobStatusError
		job.ErrorMessage = runErr.Error()
		s.logger.Error("generation", "job failed", map[string]interface{}{
			"jobId":   job.Id.String(),
			"jobType": job.JobType,
			"error":   runErr.Error(),
		})
	} else {
		job.Status = entity.JobStatusDone
		job.Output = output
	}

	if err := uow.GenerationJobRepository().UpdateStatus(ctx, job); err != nil {
		s.logger.Error("generation", "failed to finalize job", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}

	s.publishLifecycleEvent(ctx, job)
	msg.Ack()
}

func (s *generationWorkerService) publishLifecycleEvent(ctx context.Context, job *entity.GenerationJob) {
	if s.eventPublisher == nil {
		return
	}
	eventType := events.TypeJobFinished
	if job.Status == entity.JobStatusError {
		eventType = events.TypeJobFailed
	}
	evt := events.NewJobEvent(eventType, job.Id, job.NotebookId, job.UserId, job.JobType)
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("generation", "failed to publish job event", map[string]interface{}{
			"jobId": job.Id.String(),
			"error": err.Error(),
		})
	}
}

func (s *generationWorkerService) runJob(ctx context.Context, uow unitofwork.UnitOfWork, job *entity.GenerationJob) (map[string]interface{}, error) {
	source, err := s.loadSourceText(ctx, uow, job)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("no source material for job, ingest files first")
	}

	prompt, err := buildJobPrompt(job, source)
	if err != nil {
		return nil, err
	}

	raw, err := s.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.3))
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	jsonText, ok := parser.ExtractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("model output contained no JSON object")
	}
	var output map[string]interface{}
	if err := json.Unmarshal([]byte(jsonText), &output); err != nil {
		return nil, fmt.Errorf("model output was not valid JSON: %w", err)
	}
	return output, nil
}

// loadSourceText concatenates the extracted text of the job's files. An
// absent fileIds config means every ingested file in the notebook.
func (s *generationWorkerService) loadSourceText(ctx context.Context, uow unitofwork.UnitOfWork, job *entity.GenerationJob) (string, error) {
	fileIds, err := configFileIds(job.InputConfig)
	if err != nil {
		return "", err
	}

	var files []*entity.DocumentFile
	if len(fileIds) > 0 {
		files, err = uow.DocumentFileRepository().FindAll(ctx, specification.ByIDs{IDs: fileIds})
	} else {
		files, err = uow.DocumentFileRepository().FindAll(ctx, specification.ByNotebookID{NotebookID: job.NotebookId})
	}
	if err != nil {
		return "", fmt.Errorf("failed to load files: %w", err)
	}

	var b strings.Builder
	for _, f := range files {
		if f.NotebookId != job.NotebookId || f.Status != entity.FileStatusDone {
			continue
		}
		b.WriteString("## ")
		b.WriteString(f.Name)
		b.WriteString("\n\n")
		b.WriteString(f.Content)
		b.WriteString("\n\n")
	}

	runes := []rune(b.String())
	if len(runes) > maxJobSourceRunes {
		runes = runes[:maxJobSourceRunes]
	}
	return string(runes), nil
}

func configFileIds(config map[string]interface{}) ([]uuid.UUID, error) {
	raw, ok := config["fileIds"]
	if !ok {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("fileIds must be an array")
	}
	ids := make([]uuid.UUID, 0, len(list))
	for _, v := range list {
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("fileIds entries must be strings")
		}
		id, err := uuid.Parse(str)
		if err != nil {
			return nil, fmt.Errorf("malformed file id %q", str)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func buildJobPrompt(job *entity.GenerationJob, source string) (string, error) {
	var b strings.Builder

	b.WriteString("<task>\n")
	switch job.JobType {
	case entity.JobTypeSummary:
		b.WriteString("Summarize the source material into a structured study summary.\n")
		b.WriteString(`Respond with a JSON object: {"title": string, "summary": string, "key_points": [string]}.`)
	case entity.JobTypeQuiz:
		count := configInt(job.InputConfig, "questionCount", 10)
		fmt.Fprintf(&b, "Write %d quiz questions grounded strictly in the source material.\n", count)
		b.WriteString(`Respond with a JSON object: {"questions": [{"question": string, "options": [string], "answer_index": number, "explanation": string}]}.`)
	case entity.JobTypeFlashcards:
		count := configInt(job.InputConfig, "cardCount", 20)
		fmt.Fprintf(&b, "Write %d flashcards grounded strictly in the source material.\n", count)
		b.WriteString(`Respond with a JSON object: {"cards": [{"front": string, "back": string}]}.`)
	case entity.JobTypeTimeline:
		b.WriteString("Extract the chronological events from the source material.\n")
		if g := configString(job.InputConfig, "granularity"); g != "" {
			fmt.Fprintf(&b, "Use %s granularity.\n", g)
		}
		b.WriteString(`Respond with a JSON object: {"events": [{"date": string, "title": string, "description": string}]}.`)
	case entity.JobTypeAudio, entity.JobTypeVideo:
		b.WriteString("Write a narration script covering the source material.\n")
		b.WriteString(`Respond with a JSON object: {"title": string, "segments": [{"heading": string, "narration": string}]}.`)
	default:
		return "", fmt.Errorf("unknown job type: %s", job.JobType)
	}
	b.WriteString("\n")
	if lang := configString(job.InputConfig, "language"); lang != "" {
		fmt.Fprintf(&b, "Write the output in %s.\n", lang)
	}
	if extra := configString(job.InputConfig, "additionalRequirements"); extra != "" {
		fmt.Fprintf(&b, "Additional requirements: %s\n", extra)
	}
	if diff := configString(job.InputConfig, "difficulty"); diff != "" {
		fmt.Fprintf(&b, "Target difficulty: %s\n", diff)
	}
	b.WriteString("Respond with the JSON object only, no prose outside it.\n")
	b.WriteString("</task>\n\n<source_material>\n")
	b.WriteString(source)
	b.WriteString("\n</source_material>\n")

	return b.String(), nil
}

func configString(config map[string]interface{}, key string) string {
	if v, ok := config[key].(string); ok {
		return v
	}
	return ""
}

func configInt(config map[string]interface{}, key string, fallback int) int {
	switch v := config[key].(type) {
	case float64:
		if v > 0 {
			return int(v)
		}
	case int:
		if v > 0 {
			return v
		}
	}
	return fallback
}
