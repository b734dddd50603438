package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"notebook-ai-be/internal/dto"
	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/pkg/apperrors"
	"notebook-ai-be/internal/pkg/logger"
	"notebook-ai-be/pkg/lock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConversationFixture() (*fakeStore, IConversationService, uuid.UUID, uuid.UUID) {
	store := &fakeStore{}
	userId := uuid.New()
	notebookId := uuid.New()
	store.notebooks = append(store.notebooks, &entity.Notebook{Id: notebookId, UserId: userId, Name: "biology"})

	svc := NewConversationService(
		newFakeUowFactory(store),
		lock.NoopLocker{},
		logger.NewIsolatedLogger("/tmp/conversation_service_test.log"),
	)
	return store, svc, userId, notebookId
}

func seedConversation(store *fakeStore, notebookId, userId uuid.UUID, title string, updatedAt time.Time) *entity.Conversation {
	c := &entity.Conversation{
		Id:         uuid.New(),
		NotebookId: notebookId,
		UserId:     userId,
		Title:      title,
		CreatedAt:  updatedAt.Add(-time.Hour),
		UpdatedAt:  &updatedAt,
	}
	store.conversations = append(store.conversations, c)
	return c
}

func TestConversationCreate(t *testing.T) {
	store, svc, userId, notebookId := newConversationFixture()

	t.Run("default title when none given", func(t *testing.T) {
		res, err := svc.Create(context.Background(), userId, &dto.CreateConversationRequest{NotebookId: notebookId})
		require.NoError(t, err)
		assert.Equal(t, ConversationDefaultTitle, res.Title)
		assert.NotEqual(t, uuid.Nil, res.Id)
	})

	t.Run("explicit title kept", func(t *testing.T) {
		res, err := svc.Create(context.Background(), userId, &dto.CreateConversationRequest{
			NotebookId: notebookId,
			Title:      "Cell biology recap",
		})
		require.NoError(t, err)
		assert.Equal(t, "Cell biology recap", res.Title)
	})

	t.Run("unknown notebook", func(t *testing.T) {
		_, err := svc.Create(context.Background(), userId, &dto.CreateConversationRequest{NotebookId: uuid.New()})
		require.Error(t, err)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})

	assert.Len(t, store.conversations, 2)
}

func TestConversationListPagination(t *testing.T) {
	store, svc, userId, notebookId := newConversationFixture()

	base := time.Now().Add(-time.Hour)
	var seeded []*entity.Conversation
	for i := 0; i < 5; i++ {
		c := seedConversation(store, notebookId, userId, fmt.Sprintf("conversation %d", i), base.Add(time.Duration(i)*time.Minute))
		seeded = append(seeded, c)
	}

	first, err := svc.List(context.Background(), userId, &dto.ListConversationsRequest{
		NotebookId: notebookId,
		Limit:      2,
	})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)

	// Newest first.
	assert.Equal(t, seeded[4].Id, first.Items[0].Id)
	assert.Equal(t, seeded[3].Id, first.Items[1].Id)
	require.NotEmpty(t, first.NextCursor)
	assert.Equal(t, seeded[3].UpdatedAt.Format(time.RFC3339Nano), first.NextCursor)

	second, err := svc.List(context.Background(), userId, &dto.ListConversationsRequest{
		NotebookId: notebookId,
		Cursor:     first.NextCursor,
		Limit:      2,
	})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	assert.Equal(t, seeded[2].Id, second.Items[0].Id)
	assert.Equal(t, seeded[1].Id, second.Items[1].Id)

	third, err := svc.List(context.Background(), userId, &dto.ListConversationsRequest{
		NotebookId: notebookId,
		Cursor:     second.NextCursor,
		Limit:      2,
	})
	require.NoError(t, err)
	require.Len(t, third.Items, 1)
	assert.Equal(t, seeded[0].Id, third.Items[0].Id)
	assert.Empty(t, third.NextCursor, "last page carries no cursor")
}

func TestConversationListStats(t *testing.T) {
	store, svc, userId, notebookId := newConversationFixture()
	c := seedConversation(store, notebookId, userId, "with messages", time.Now())

	now := time.Now()
	store.messages = append(store.messages,
		&entity.Message{Id: uuid.New(), ConversationId: c.Id, NotebookId: notebookId, Role: entity.MessageRoleUser, Content: "what is mitosis", CreatedAt: now},
		&entity.Message{Id: uuid.New(), ConversationId: c.Id, NotebookId: notebookId, Role: entity.MessageRoleAssistant, Content: "cell division", CreatedAt: now.Add(time.Second)},
	)

	res, err := svc.List(context.Background(), userId, &dto.ListConversationsRequest{NotebookId: notebookId})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, int64(2), res.Items[0].MessageCount)
	assert.Equal(t, "what is mitosis", res.Items[0].Preview)
}

func TestConversationListUnknownNotebook(t *testing.T) {
	_, svc, userId, _ := newConversationFixture()

	_, err := svc.List(context.Background(), userId, &dto.ListConversationsRequest{
		NotebookId: uuid.New(),
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestConversationListMalformedCursor(t *testing.T) {
	_, svc, userId, notebookId := newConversationFixture()

	_, err := svc.List(context.Background(), userId, &dto.ListConversationsRequest{
		NotebookId: notebookId,
		Cursor:     "not-a-timestamp",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
}

func TestSetActiveAndGetActive(t *testing.T) {
	store, svc, userId, notebookId := newConversationFixture()
	first := seedConversation(store, notebookId, userId, "first", time.Now().Add(-time.Minute))
	second := seedConversation(store, notebookId, userId, "second", time.Now())

	_, err := svc.GetActive(context.Background(), userId, notebookId)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	res, err := svc.SetActive(context.Background(), userId, &dto.SetActiveConversationRequest{
		NotebookId:     notebookId,
		ConversationId: first.Id,
	})
	require.NoError(t, err)
	assert.Equal(t, first.Id, res.ConversationId)

	// Switching upserts the single state row instead of adding one.
	_, err = svc.SetActive(context.Background(), userId, &dto.SetActiveConversationRequest{
		NotebookId:     notebookId,
		ConversationId: second.Id,
	})
	require.NoError(t, err)
	require.Len(t, store.states, 1)

	active, err := svc.GetActive(context.Background(), userId, notebookId)
	require.NoError(t, err)
	assert.Equal(t, second.Id, active.ConversationId)
}

func TestSetActiveValidation(t *testing.T) {
	store, svc, userId, notebookId := newConversationFixture()
	conversation := seedConversation(store, notebookId, userId, "here", time.Now())

	otherNotebook := uuid.New()
	store.notebooks = append(store.notebooks, &entity.Notebook{Id: otherNotebook, UserId: userId})

	t.Run("unknown conversation", func(t *testing.T) {
		_, err := svc.SetActive(context.Background(), userId, &dto.SetActiveConversationRequest{
			NotebookId:     notebookId,
			ConversationId: uuid.New(),
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})

	t.Run("conversation from another notebook", func(t *testing.T) {
		_, err := svc.SetActive(context.Background(), userId, &dto.SetActiveConversationRequest{
			NotebookId:     otherNotebook,
			ConversationId: conversation.Id,
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
	})
}

func TestConversationDeleteCascadesAndRepoints(t *testing.T) {
	store, svc, userId, notebookId := newConversationFixture()
	doomed := seedConversation(store, notebookId, userId, "doomed", time.Now())
	survivor := seedConversation(store, notebookId, userId, "survivor", time.Now().Add(-time.Minute))

	msg := &entity.Message{Id: uuid.New(), ConversationId: doomed.Id, NotebookId: notebookId, Role: entity.MessageRoleUser, Content: "hi", CreatedAt: time.Now()}
	store.messages = append(store.messages, msg)
	store.sources = append(store.sources, &entity.MessageSource{Id: uuid.New(), MessageId: msg.Id, SourceType: entity.SourceTypeRAG})
	store.attachments = append(store.attachments, &entity.MessageAttachment{Id: uuid.New(), MessageId: msg.Id, FileName: "a.png"})
	store.states = append(store.states, &entity.ConversationState{
		Id:             uuid.New(),
		UserId:         userId,
		NotebookId:     notebookId,
		ConversationId: doomed.Id,
		LastOpenedAt:   time.Now(),
	})

	err := svc.Delete(context.Background(), userId, notebookId, doomed.Id)
	require.NoError(t, err)

	assert.Empty(t, store.messages)
	assert.Empty(t, store.sources)
	assert.Empty(t, store.attachments)
	require.Len(t, store.conversations, 1)
	assert.Equal(t, survivor.Id, store.conversations[0].Id)

	// The active pointer moved to the remaining conversation.
	require.Len(t, store.states, 1)
	assert.Equal(t, survivor.Id, store.states[0].ConversationId)
}

func TestConversationDeleteLastRemovesState(t *testing.T) {
	store, svc, userId, notebookId := newConversationFixture()
	only := seedConversation(store, notebookId, userId, "only one", time.Now())
	store.states = append(store.states, &entity.ConversationState{
		Id:             uuid.New(),
		UserId:         userId,
		NotebookId:     notebookId,
		ConversationId: only.Id,
		LastOpenedAt:   time.Now(),
	})

	err := svc.Delete(context.Background(), userId, notebookId, only.Id)
	require.NoError(t, err)

	assert.Empty(t, store.conversations)
	assert.Empty(t, store.states, "no dangling active pointer")
}

func TestConversationDeleteAuthorization(t *testing.T) {
	store, svc, userId, notebookId := newConversationFixture()
	conversation := seedConversation(store, notebookId, userId, "mine", time.Now())

	t.Run("unknown conversation", func(t *testing.T) {
		err := svc.Delete(context.Background(), userId, notebookId, uuid.New())
		require.Error(t, err)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})

	t.Run("wrong notebook", func(t *testing.T) {
		err := svc.Delete(context.Background(), userId, uuid.New(), conversation.Id)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
	})

	t.Run("not the creator", func(t *testing.T) {
		err := svc.Delete(context.Background(), uuid.New(), notebookId, conversation.Id)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	})

	assert.Len(t, store.conversations, 1)
}
