package contract

import (
	"context"

	"review-insights-be/internal/entity"
	"review-insights-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ReportRepository interface {
	Create(ctx context.Context, report *entity.Report) error
	Update(ctx context.Context, report *entity.Report) error
	Delete(ctx context.Context, id uuid.UUID) error
	// UpdateChecksum persists the indexed-body checksum. Only the indexer
	// calls this, and only after a full section replacement committed.
	UpdateChecksum(ctx context.Context, id uuid.UUID, checksum string) error
	// NextPage returns up to pageSize reports ordered by ascending id,
	// strictly after the given cursor id (uuid.Nil means from the start).
	NextPage(ctx context.Context, afterId uuid.UUID, pageSize int) ([]*entity.Report, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Report, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Report, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
