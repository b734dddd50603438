package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"notebook-ai-be/internal/dto"
	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/pkg/apperrors"
	"notebook-ai-be/internal/pkg/logger"
	"notebook-ai-be/internal/repository/specification"
	"notebook-ai-be/internal/repository/unitofwork"
	"notebook-ai-be/pkg/chat/assembler"
	"notebook-ai-be/pkg/chat/attribution"
	"notebook-ai-be/pkg/chat/history"
	"notebook-ai-be/pkg/chat/mode"
	"notebook-ai-be/pkg/chat/parser"
	"notebook-ai-be/pkg/chat/prompt"
	"notebook-ai-be/pkg/llm"
	"notebook-ai-be/pkg/ocr"
	"notebook-ai-be/pkg/storage"

	"github.com/google/uuid"
)

// Titles treated as "untitled" for auto-derivation.
const ConversationDefaultTitle = "New Conversation"

const webProviderCode = "web"

type IChatService interface {
	SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, notebookId uuid.UUID, conversationId uuid.UUID) (*dto.GetChatHistoryResponse, error)
}

// chatService coordinates one chat turn end to end: attachment ingestion,
// mode resolution, context assembly, the LLM call, parsing, attribution
// and persistence.
type chatService struct {
	uowFactory      unitofwork.RepositoryFactory
	llmProviders    map[string]llm.LLMProvider
	defaultProvider string
	modeRouter      *mode.Router
	ctxAssembler    *assembler.Assembler
	historyLoader   *history.Loader
	attributor      *attribution.Attributor
	ocrProvider     ocr.Provider
	objectStore     storage.ObjectStore
	logger          logger.ILogger
	llmLogger       logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	llmProviders map[string]llm.LLMProvider,
	defaultProvider string,
	modeRouter *mode.Router,
	ctxAssembler *assembler.Assembler,
	ocrProvider ocr.Provider,
	objectStore storage.ObjectStore,
	log logger.ILogger,
	llmLog logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:      uowFactory,
		llmProviders:    llmProviders,
		defaultProvider: defaultProvider,
		modeRouter:      modeRouter,
		ctxAssembler:    ctxAssembler,
		historyLoader:   history.NewLoader(uowFactory),
		attributor:      attribution.NewAttributor(),
		ocrProvider:     ocrProvider,
		objectStore:     objectStore,
		logger:          log,
		llmLogger:       llmLog,
	}
}

func (cs *chatService) SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	// Validation stops the pipeline before any external call.
	conversation, err := cs.verifyConversation(ctx, uow, userId, request.NotebookId, request.ConversationId)
	if err != nil {
		return nil, err
	}

	var explicitMode mode.Mode
	if request.Mode != "" {
		explicitMode, err = mode.Parse(request.Mode)
		if err != nil {
			return nil, apperrors.BadRequest("%s", err.Error())
		}
	}

	provider, providerCode, err := cs.selectProvider(request.Provider)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(request.Text) == "" {
		return nil, apperrors.BadRequest("message text is required")
	}

	// ATTACHMENTS_INGESTED: upload and extract, tolerant per file.
	attachments := cs.ingestAttachments(ctx, request.Attachments)
	ocrText := collectOcrText(attachments)

	chatHistory, err := cs.historyLoader.LoadConversationHistory(ctx, request.ConversationId)
	if err != nil {
		return nil, apperrors.Internal("failed to load conversation history", err)
	}

	// MODE_RESOLVED.
	resolvedMode := cs.modeRouter.Resolve(ctx, mode.RouteInput{
		Query:            request.Text,
		ExplicitMode:     explicitMode,
		OcrText:          ocrText,
		AttachmentTypes:  distinctContentTypes(attachments),
		AttachmentCount:  len(attachments),
		FormattedHistory: history.Format(chatHistory),
	})

	// CONTEXT_ASSEMBLED: failures here are fatal, nothing is persisted.
	turnCtx, err := cs.ctxAssembler.Assemble(ctx, resolvedMode, request.Text, ocrText, request.FileIds)
	if err != nil {
		return nil, apperrors.Internal("failed to assemble context", err)
	}

	// PROMPTED. The prompt embeds its own transcript of recent history.
	promptText := prompt.NewBuilder(turnCtx, chatHistory).Build()
	rawReply, err := provider.Generate(ctx, promptText)
	if err != nil {
		return nil, apperrors.Internal("llm call failed", err)
	}

	cs.llmLogger.Info("chat", "turn completed against provider", map[string]interface{}{
		"conversationId": request.ConversationId.String(),
		"mode":           string(resolvedMode),
		"provider":       providerCode,
		"promptChars":    len(promptText),
		"replyChars":     len(rawReply),
	})

	// PARSED: total, degrades to the raw reply.
	parsed := parser.Parse(rawReply)

	// ATTRIBUTED: claims are gated by mode before resolution so a turn
	// can never persist a source type its mode forbids.
	sources := cs.attributeSources(resolvedMode, parsed, turnCtx)

	// PERSISTED.
	return cs.persistTurn(ctx, userId, request, conversation, resolvedMode, providerCode, parsed.Answer, sources, attachments, turnCtx)
}

func (cs *chatService) verifyConversation(ctx context.Context, uow unitofwork.UnitOfWork, userId, notebookId, conversationId uuid.UUID) (*entity.Conversation, error) {
	notebook, err := uow.NotebookRepository().FindOne(ctx, specification.ByID{ID: notebookId})
	if err != nil {
		return nil, apperrors.Internal("failed to load notebook", err)
	}
	if notebook == nil {
		return nil, apperrors.NotFound("notebook not found")
	}

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return nil, apperrors.Internal("failed to load conversation", err)
	}
	if conversation == nil {
		return nil, apperrors.NotFound("conversation not found")
	}
	if conversation.NotebookId != notebookId {
		return nil, apperrors.BadRequest("conversation does not belong to this notebook")
	}
	_ = userId // any notebook member may chat; deletion stays creator-only
	return conversation, nil
}

func (cs *chatService) selectProvider(code string) (llm.LLMProvider, string, error) {
	if code == "" {
		code = cs.defaultProvider
	}
	provider, ok := cs.llmProviders[code]
	if !ok {
		return nil, "", apperrors.BadRequest("unsupported LLM provider: %s", code)
	}
	return provider, code, nil
}

// ingestAttachments uploads each file and extracts its text. Failures are
// recorded on the attachment row, never thrown: a turn survives any
// number of broken attachments. Order is the upload order.
func (cs *chatService) ingestAttachments(ctx context.Context, inputs []dto.AttachmentInput) []*entity.MessageAttachment {
	attachments := make([]*entity.MessageAttachment, 0, len(inputs))
	for i, input := range inputs {
		attachment := &entity.MessageAttachment{
			Id:          uuid.New(),
			FileName:    input.FileName,
			ContentType: input.ContentType,
			Position:    i,
			CreatedAt:   time.Now(),
		}

		storageKey := fmt.Sprintf("attachments/%s/%s", attachment.Id.String(), input.FileName)
		if cs.objectStore != nil {
			if err := cs.objectStore.Put(ctx, storageKey, bytes.NewReader(input.Data), int64(len(input.Data)), input.ContentType); err != nil {
				cs.logger.Warn("chat", "attachment upload failed", map[string]interface{}{
					"fileName": input.FileName,
					"error":    err.Error(),
				})
			} else {
				attachment.StorageKey = storageKey
			}
		}

		text, err := cs.ocrProvider.ExtractText(ctx, input.Data, input.ContentType)
		if err != nil {
			attachment.OcrError = err.Error()
		} else {
			attachment.OcrText = text
		}

		attachments = append(attachments, attachment)
	}
	return attachments
}

func collectOcrText(attachments []*entity.MessageAttachment) string {
	var parts []string
	for _, a := range attachments {
		if a.OcrText != "" {
			parts = append(parts, a.OcrText)
		}
	}
	return strings.Join(parts, "\n")
}

func distinctContentTypes(attachments []*entity.MessageAttachment) []string {
	seen := make(map[string]bool)
	var types []string
	for _, a := range attachments {
		if a.ContentType != "" && !seen[a.ContentType] {
			seen[a.ContentType] = true
			types = append(types, a.ContentType)
		}
	}
	return types
}

// attributeSources applies the mode gate, then reconciles the surviving
// claims against the turn's actual evidence.
func (cs *chatService) attributeSources(m mode.Mode, parsed *parser.ParsedResponse, turnCtx *assembler.TurnContext) []entity.MessageSource {
	if m == mode.ModeLLMOnly {
		return nil
	}

	claims := make([]parser.ClaimedSource, 0, len(parsed.Sources))
	for _, claim := range parsed.Sources {
		switch m {
		case mode.ModeRAG:
			if claim.SourceType == entity.SourceTypeRAG {
				claims = append(claims, claim)
			}
		case mode.ModeWeb:
			if claim.SourceType == entity.SourceTypeWEB {
				claims = append(claims, claim)
			}
		default:
			claims = append(claims, claim)
		}
	}

	return cs.attributor.Resolve(claims, turnCtx.Chunks, turnCtx.WebResults, webProviderCode)
}

func (cs *chatService) persistTurn(
	ctx context.Context,
	userId uuid.UUID,
	request *dto.SendChatRequest,
	conversation *entity.Conversation,
	resolvedMode mode.Mode,
	providerCode string,
	answer string,
	sources []entity.MessageSource,
	attachments []*entity.MessageAttachment,
	turnCtx *assembler.TurnContext,
) (*dto.SendChatResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	priorCount, err := uow.MessageRepository().Count(ctx,
		specification.ByConversationID{ConversationID: request.ConversationId},
	)
	if err != nil {
		return nil, apperrors.Internal("failed to count messages", err)
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, apperrors.Internal("failed to begin transaction", err)
	}
	defer uow.Rollback()

	now := time.Now()

	userMessage := &entity.Message{
		Id:             uuid.New(),
		ConversationId: request.ConversationId,
		NotebookId:     request.NotebookId,
		Role:           entity.MessageRoleUser,
		Content:        request.Text,
		CreatedAt:      now,
	}
	if err := uow.MessageRepository().Create(ctx, userMessage); err != nil {
		return nil, apperrors.Internal("failed to save user message", err)
	}

	if len(attachments) > 0 {
		for _, a := range attachments {
			a.MessageId = userMessage.Id
		}
		if err := uow.MessageAttachmentRepository().CreateBulk(ctx, attachments); err != nil {
			return nil, apperrors.Internal("failed to save attachments", err)
		}
	}

	// The reply must sort after the question even when both land in the
	// same clock tick.
	replyAt := time.Now()
	if !replyAt.After(now) {
		replyAt = now.Add(time.Millisecond)
	}

	assistantMessage := &entity.Message{
		Id:             uuid.New(),
		ConversationId: request.ConversationId,
		NotebookId:     request.NotebookId,
		Role:           entity.MessageRoleAssistant,
		Content:        answer,
		Mode:           string(resolvedMode),
		ModelRef:       providerCode,
		ParentId:       &userMessage.Id,
		Context: map[string]interface{}{
			"hasRagContext": turnCtx.HasRagContext,
			"hasWebResults": turnCtx.HasWebResults,
			"webQuery":      turnCtx.WebQuery,
			"searchTimeMs":  turnCtx.SearchTimeMs,
		},
		CreatedAt: replyAt,
	}
	if err := uow.MessageRepository().Create(ctx, assistantMessage); err != nil {
		return nil, apperrors.Internal("failed to save assistant message", err)
	}

	if len(sources) > 0 {
		toSave := make([]*entity.MessageSource, len(sources))
		for i := range sources {
			sources[i].Id = uuid.New()
			sources[i].MessageId = assistantMessage.Id
			sources[i].CreatedAt = now
			toSave[i] = &sources[i]
		}
		if err := uow.MessageSourceRepository().CreateBulk(ctx, toSave); err != nil {
			return nil, apperrors.Internal("failed to save sources", err)
		}
	}

	// Title derivation happens only on the conversation's first message.
	if priorCount == 0 && isUntitled(conversation.Title) {
		conversation.Title = DeriveTitle(request.Text)
	}
	conversation.UpdatedAt = &now
	if err := uow.ConversationRepository().Update(ctx, conversation); err != nil {
		return nil, apperrors.Internal("failed to update conversation", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit turn", err)
	}

	return &dto.SendChatResponse{
		ConversationId:    conversation.Id,
		ConversationTitle: conversation.Title,
		Mode:              string(resolvedMode),
		Sent:              toChatMessageDTO(userMessage, nil, attachments),
		Reply:             toChatMessageDTO(assistantMessage, sources, nil),
	}, nil
}

func (cs *chatService) GetChatHistory(ctx context.Context, userId uuid.UUID, notebookId uuid.UUID, conversationId uuid.UUID) (*dto.GetChatHistoryResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if _, err := cs.verifyConversation(ctx, uow, userId, notebookId, conversationId); err != nil {
		return nil, err
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, apperrors.Internal("failed to load messages", err)
	}

	messageIds := make([]uuid.UUID, len(messages))
	for i, m := range messages {
		messageIds[i] = m.Id
	}

	sources, err := uow.MessageSourceRepository().FindAllByMessageIds(ctx, messageIds)
	if err != nil {
		return nil, apperrors.Internal("failed to load sources", err)
	}
	sourcesByMsg := make(map[uuid.UUID][]entity.MessageSource)
	for _, s := range sources {
		sourcesByMsg[s.MessageId] = append(sourcesByMsg[s.MessageId], *s)
	}

	attachments, err := uow.MessageAttachmentRepository().FindAllByMessageIds(ctx, messageIds)
	if err != nil {
		return nil, apperrors.Internal("failed to load attachments", err)
	}
	attachmentsByMsg := make(map[uuid.UUID][]*entity.MessageAttachment)
	for _, a := range attachments {
		attachmentsByMsg[a.MessageId] = append(attachmentsByMsg[a.MessageId], a)
	}

	items := make([]dto.ChatMessageDTO, 0, len(messages))
	for _, m := range messages {
		items = append(items, *toChatMessageDTO(m, sourcesByMsg[m.Id], attachmentsByMsg[m.Id]))
	}

	return &dto.GetChatHistoryResponse{
		ConversationId: conversationId,
		Messages:       items,
	}, nil
}

func isUntitled(title string) bool {
	switch strings.TrimSpace(title) {
	case "", ConversationDefaultTitle, "Untitled", "Unnamed conversation":
		return true
	}
	return false
}

// DeriveTitle turns the first user message into a conversation title:
// markdown emphasis markers stripped, truncated to 100 characters.
func DeriveTitle(content string) string {
	title := strings.NewReplacer("*", "", "_", "", "#", "", "`", "", "~", "").Replace(content)
	title = strings.Join(strings.Fields(title), " ")

	runes := []rune(title)
	if len(runes) > 100 {
		title = strings.TrimSpace(string(runes[:100]))
	}
	if title == "" {
		return ConversationDefaultTitle
	}
	return title
}

func toChatMessageDTO(m *entity.Message, sources []entity.MessageSource, attachments []*entity.MessageAttachment) *dto.ChatMessageDTO {
	out := &dto.ChatMessageDTO{
		Id:        m.Id,
		Role:      m.Role,
		Content:   m.Content,
		Mode:      m.Mode,
		ModelRef:  m.ModelRef,
		CreatedAt: m.CreatedAt,
	}
	for _, s := range sources {
		out.Sources = append(out.Sources, dto.SourceDTO{
			Id:         s.Id,
			SourceType: s.SourceType,
			Provider:   s.Provider,
			Score:      s.Score,
			FileId:     s.FileId,
			ChunkIndex: s.ChunkIndex,
			Content:    s.Content,
			Similarity: s.Similarity,
			Distance:   s.Distance,
			WebIndex:   s.WebIndex,
			Url:        s.Url,
			Title:      s.Title,
			Snippet:    s.Snippet,
			ImageUrl:   s.ImageUrl,
		})
	}
	for _, a := range attachments {
		out.Attachments = append(out.Attachments, dto.AttachmentDTO{
			Id:       a.Id,
			FileName: a.FileName,
			MimeType: a.ContentType,
			OcrText:  a.OcrText,
			OcrError: a.OcrError,
			Position: a.Position,
		})
	}
	return out
}
