package implementation

import (
	"context"
	"errors"

	"review-insights-be/internal/entity"
	"review-insights-be/internal/mapper"
	"review-insights-be/internal/model"
	"review-insights-be/internal/repository/contract"
	"review-insights-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type SectionEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SectionEmbeddingMapper
}

func NewSectionEmbeddingRepository(db *gorm.DB) contract.SectionEmbeddingRepository {
	return &SectionEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewSectionEmbeddingMapper(),
	}
}

func (r *SectionEmbeddingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SectionEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, sections []*entity.SectionEmbedding) error {
	if len(sections) == 0 {
		return nil
	}
	models := r.mapper.ToModels(sections)
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*sections[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *SectionEmbeddingRepositoryImpl) DeleteByReportId(ctx context.Context, reportId uuid.UUID) error {
	query := r.applySpecifications(r.db.WithContext(ctx).Unscoped(), specification.ByReportID{ReportID: reportId})
	return query.Delete(&model.SectionEmbedding{}).Error
}

// SearchSimilarWithScore ranks stored sections against a query vector.
// pgvector's <=> operator is cosine distance, so similarity is 1 - distance.
func (r *SectionEmbeddingRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*contract.ScoredSection, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.SectionEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("report_section_embeddings").
		Select("report_section_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Joins("JOIN reports ON reports.id = report_section_embeddings.report_id").
		Where("report_section_embeddings.deleted_at IS NULL").
		Where("reports.deleted_at IS NULL").
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredSection, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredSection{
			Section:    r.mapper.ToEntity(&res.SectionEmbedding),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

func (r *SectionEmbeddingRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SectionEmbedding, error) {
	var m model.SectionEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SectionEmbeddingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SectionEmbedding, error) {
	var models []*model.SectionEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *SectionEmbeddingRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.SectionEmbedding{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
