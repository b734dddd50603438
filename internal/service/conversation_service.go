package service

import (
	"context"
	"fmt"
	"time"

	"notebook-ai-be/internal/dto"
	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/pkg/apperrors"
	"notebook-ai-be/internal/pkg/logger"
	"notebook-ai-be/internal/repository/specification"
	"notebook-ai-be/internal/repository/unitofwork"
	"notebook-ai-be/pkg/lock"

	"github.com/google/uuid"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100

	stateLockTTL      = 5 * time.Second
	stateLockAttempts = 10
	stateLockBackoff  = 50 * time.Millisecond
)

type IConversationService interface {
	Create(ctx context.Context, userId uuid.UUID, request *dto.CreateConversationRequest) (*dto.CreateConversationResponse, error)
	List(ctx context.Context, userId uuid.UUID, request *dto.ListConversationsRequest) (*dto.ListConversationsResponse, error)
	SetActive(ctx context.Context, userId uuid.UUID, request *dto.SetActiveConversationRequest) (*dto.ActiveConversationResponse, error)
	GetActive(ctx context.Context, userId uuid.UUID, notebookId uuid.UUID) (*dto.ActiveConversationResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, notebookId uuid.UUID, conversationId uuid.UUID) error
}

type conversationService struct {
	uowFactory unitofwork.RepositoryFactory
	locker     lock.Locker
	logger     logger.ILogger
}

func NewConversationService(uowFactory unitofwork.RepositoryFactory, locker lock.Locker, log logger.ILogger) IConversationService {
	return &conversationService{
		uowFactory: uowFactory,
		locker:     locker,
		logger:     log,
	}
}

func (s *conversationService) Create(ctx context.Context, userId uuid.UUID, request *dto.CreateConversationRequest) (*dto.CreateConversationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	notebook, err := uow.NotebookRepository().FindOne(ctx, specification.ByID{ID: request.NotebookId})
	if err != nil {
		return nil, apperrors.Internal("failed to load notebook", err)
	}
	if notebook == nil {
		return nil, apperrors.NotFound("notebook not found")
	}

	title := request.Title
	if title == "" {
		title = ConversationDefaultTitle
	}

	conversation := &entity.Conversation{
		Id:         uuid.New(),
		NotebookId: request.NotebookId,
		UserId:     userId,
		Title:      title,
		CreatedAt:  time.Now(),
	}
	if err := uow.ConversationRepository().Create(ctx, conversation); err != nil {
		return nil, apperrors.Internal("failed to create conversation", err)
	}

	return &dto.CreateConversationResponse{
		Id:    conversation.Id,
		Title: conversation.Title,
	}, nil
}

// List pages newest-first on updated_at. The cursor is the RFC3339Nano
// updated_at of the last item the client saw.
func (s *conversationService) List(ctx context.Context, userId uuid.UUID, request *dto.ListConversationsRequest) (*dto.ListConversationsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	notebook, err := uow.NotebookRepository().FindOne(ctx, specification.ByID{ID: request.NotebookId})
	if err != nil {
		return nil, apperrors.Internal("failed to load notebook", err)
	}
	if notebook == nil {
		return nil, apperrors.NotFound("notebook not found")
	}

	limit := request.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	specs := []specification.Specification{
		specification.ByNotebookID{NotebookID: request.NotebookId},
		specification.OrderBy{Field: "updated_at", Desc: true},
		specification.Limit{N: limit + 1},
	}
	if request.Cursor != "" {
		cursor, err := time.Parse(time.RFC3339Nano, request.Cursor)
		if err != nil {
			return nil, apperrors.BadRequest("malformed cursor: %s", request.Cursor)
		}
		specs = append(specs, specification.UpdatedBefore{T: cursor})
	}

	conversations, err := uow.ConversationRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, apperrors.Internal("failed to list conversations", err)
	}

	hasMore := len(conversations) > limit
	if hasMore {
		conversations = conversations[:limit]
	}

	ids := make([]uuid.UUID, len(conversations))
	for i, c := range conversations {
		ids[i] = c.Id
	}
	stats, err := uow.MessageRepository().StatsByConversationIds(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal("failed to load conversation stats", err)
	}

	items := make([]dto.ConversationListItem, 0, len(conversations))
	for _, c := range conversations {
		item := dto.ConversationListItem{
			Id:        c.Id,
			Title:     c.Title,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		}
		if st, ok := stats[c.Id]; ok {
			item.MessageCount = st.MessageCount
			item.Preview = previewExcerpt(st.FirstMessage)
		}
		items = append(items, item)
	}

	response := &dto.ListConversationsResponse{Items: items}
	if hasMore && len(conversations) > 0 {
		last := conversations[len(conversations)-1]
		if last.UpdatedAt != nil {
			response.NextCursor = last.UpdatedAt.Format(time.RFC3339Nano)
		} else {
			response.NextCursor = last.CreatedAt.Format(time.RFC3339Nano)
		}
	}
	return response, nil
}

func previewExcerpt(content string) string {
	runes := []rune(content)
	if len(runes) > 120 {
		return string(runes[:120])
	}
	return content
}

// SetActive points the single (user, notebook) state row at a
// conversation. Writers for the same pair are serialized with a redis
// lock on top of the unique-index upsert, so a concurrent delete cannot
// resurrect a dead conversation as active.
func (s *conversationService) SetActive(ctx context.Context, userId uuid.UUID, request *dto.SetActiveConversationRequest) (*dto.ActiveConversationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: request.ConversationId})
	if err != nil {
		return nil, apperrors.Internal("failed to load conversation", err)
	}
	if conversation == nil {
		return nil, apperrors.NotFound("conversation not found")
	}
	if conversation.NotebookId != request.NotebookId {
		return nil, apperrors.BadRequest("conversation does not belong to this notebook")
	}

	release := s.acquireStateLock(ctx, userId, request.NotebookId)
	defer release()

	// Re-read under the lock: the conversation may have been deleted
	// between validation and the state write.
	conversation, err = uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: request.ConversationId})
	if err != nil {
		return nil, apperrors.Internal("failed to load conversation", err)
	}
	if conversation == nil {
		return nil, apperrors.NotFound("conversation not found")
	}

	now := time.Now()
	state := &entity.ConversationState{
		Id:             uuid.New(),
		UserId:         userId,
		NotebookId:     request.NotebookId,
		ConversationId: request.ConversationId,
		LastOpenedAt:   now,
		CreatedAt:      now,
	}
	if err := uow.ConversationStateRepository().Upsert(ctx, state); err != nil {
		return nil, apperrors.Internal("failed to set active conversation", err)
	}

	return &dto.ActiveConversationResponse{
		ConversationId: request.ConversationId,
		LastOpenedAt:   now,
	}, nil
}

func (s *conversationService) GetActive(ctx context.Context, userId uuid.UUID, notebookId uuid.UUID) (*dto.ActiveConversationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	state, err := uow.ConversationStateRepository().FindByUserAndNotebook(ctx, userId, notebookId)
	if err != nil {
		return nil, apperrors.Internal("failed to load conversation state", err)
	}
	if state == nil {
		return nil, apperrors.NotFound("no active conversation")
	}

	return &dto.ActiveConversationResponse{
		ConversationId: state.ConversationId,
		LastOpenedAt:   state.LastOpenedAt,
	}, nil
}

// Delete removes a conversation and everything under it. Creator-only.
// If the conversation was someone's active one, their state is repointed
// to the most recently updated remaining conversation, or removed when
// none remain: a dangling pointer is never left behind.
func (s *conversationService) Delete(ctx context.Context, userId uuid.UUID, notebookId uuid.UUID, conversationId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return apperrors.Internal("failed to load conversation", err)
	}
	if conversation == nil {
		return apperrors.NotFound("conversation not found")
	}
	if conversation.NotebookId != notebookId {
		return apperrors.BadRequest("conversation does not belong to this notebook")
	}
	if conversation.UserId != userId {
		return apperrors.Forbidden("only the creator may delete a conversation")
	}

	release := s.acquireStateLock(ctx, userId, notebookId)
	defer release()

	affectedStates, err := uow.ConversationStateRepository().FindAllByConversationId(ctx, conversationId)
	if err != nil {
		return apperrors.Internal("failed to load conversation states", err)
	}

	if err := uow.Begin(ctx); err != nil {
		return apperrors.Internal("failed to begin transaction", err)
	}
	defer uow.Rollback()

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
	)
	if err != nil {
		return apperrors.Internal("failed to load messages", err)
	}
	if len(messages) > 0 {
		messageIds := make([]uuid.UUID, len(messages))
		for i, m := range messages {
			messageIds[i] = m.Id
		}
		if err := uow.MessageSourceRepository().DeleteByMessageIds(ctx, messageIds); err != nil {
			return apperrors.Internal("failed to delete sources", err)
		}
		if err := uow.MessageAttachmentRepository().DeleteByMessageIds(ctx, messageIds); err != nil {
			return apperrors.Internal("failed to delete attachments", err)
		}
	}
	if err := uow.MessageRepository().DeleteByConversationId(ctx, conversationId); err != nil {
		return apperrors.Internal("failed to delete messages", err)
	}
	if err := uow.ConversationRepository().Delete(ctx, conversationId); err != nil {
		return apperrors.Internal("failed to delete conversation", err)
	}

	// Repoint every state row that referenced the deleted conversation.
	for _, st := range affectedStates {
		replacement, err := uow.ConversationRepository().FindOne(ctx,
			specification.ByNotebookID{NotebookID: st.NotebookId},
			specification.OrderBy{Field: "updated_at", Desc: true},
		)
		if err != nil {
			return apperrors.Internal("failed to find replacement conversation", err)
		}
		if replacement == nil || replacement.Id == conversationId {
			if err := uow.ConversationStateRepository().DeleteByUserAndNotebook(ctx, st.UserId, st.NotebookId); err != nil {
				return apperrors.Internal("failed to delete conversation state", err)
			}
			continue
		}
		st.ConversationId = replacement.Id
		st.LastOpenedAt = time.Now()
		if err := uow.ConversationStateRepository().Upsert(ctx, st); err != nil {
			return apperrors.Internal("failed to repoint conversation state", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return apperrors.Internal("failed to commit delete", err)
	}
	return nil
}

func (s *conversationService) acquireStateLock(ctx context.Context, userId, notebookId uuid.UUID) func() {
	key := fmt.Sprintf("conversation-state:%s:%s", userId, notebookId)
	for i := 0; i < stateLockAttempts; i++ {
		release, ok := s.locker.Acquire(ctx, key, stateLockTTL)
		if ok {
			return release
		}
		time.Sleep(stateLockBackoff)
	}
	// Last-writer-wins beats blocking the request forever.
	s.logger.Warn("conversation", "state lock not acquired, proceeding unlocked", map[string]interface{}{
		"key": key,
	})
	return func() {}
}
