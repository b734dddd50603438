package unitofwork

import (
	"context"

	"notebook-ai-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	NotebookRepository() contract.NotebookRepository
	DocumentFileRepository() contract.DocumentFileRepository
	DocumentChunkRepository() contract.DocumentChunkRepository

	ConversationRepository() contract.ConversationRepository
	MessageRepository() contract.MessageRepository
	MessageSourceRepository() contract.MessageSourceRepository
	MessageAttachmentRepository() contract.MessageAttachmentRepository
	ConversationStateRepository() contract.ConversationStateRepository

	GenerationJobRepository() contract.GenerationJobRepository
}
