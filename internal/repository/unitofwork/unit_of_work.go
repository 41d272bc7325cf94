package unitofwork

import (
	"context"

	"review-insights-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ReportRepository() contract.ReportRepository
	SectionEmbeddingRepository() contract.SectionEmbeddingRepository

	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
	ChatMessageRawRepository() contract.ChatMessageRawRepository
}
