package contract

import (
	"context"

	"review-insights-be/internal/entity"
	"review-insights-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredSection pairs a stored section with its cosine similarity to a
// query vector. Produced per query, never persisted.
type ScoredSection struct {
	Section    *entity.SectionEmbedding
	Similarity float64
}

type SectionEmbeddingRepository interface {
	CreateBulk(ctx context.Context, sections []*entity.SectionEmbedding) error
	DeleteByReportId(ctx context.Context, reportId uuid.UUID) error
	// SearchSimilarWithScore returns sections whose cosine similarity to the
	// query vector is at least threshold, ranked descending, capped at limit.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*ScoredSection, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SectionEmbedding, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SectionEmbedding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
