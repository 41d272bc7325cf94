package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"review-insights-be/internal/entity"
	"review-insights-be/internal/pkg/logger"
	"review-insights-be/internal/repository/specification"
	"review-insights-be/internal/repository/unitofwork"
	"review-insights-be/pkg/contentstore"
	"review-insights-be/pkg/embedding"
	"review-insights-be/pkg/events"
	"review-insights-be/pkg/nats"
	"review-insights-be/pkg/segment"

	"github.com/google/uuid"
)

// ReindexParams controls one batch pass over the report corpus.
type ReindexParams struct {
	// AfterId resumes the ascending-id walk strictly after this cursor.
	// uuid.Nil starts from the beginning.
	AfterId uuid.UUID
	// PageSize bounds each page pulled from the store.
	PageSize int
	// Refresh re-embeds even when the body checksum is unchanged.
	Refresh bool
}

// ReindexResult summarizes a batch pass. LastId is the resume cursor: the
// highest report id whose outcome committed before any failure occurred.
type ReindexResult struct {
	Processed int
	Skipped   int
	Failed    int
	LastId    uuid.UUID
}

type IIndexerService interface {
	// Reindex walks the corpus in ascending id order and brings every
	// report's section index up to date.
	Reindex(ctx context.Context, params ReindexParams) (*ReindexResult, error)
	// ReindexReport indexes a single report by id.
	ReindexReport(ctx context.Context, reportId uuid.UUID, refresh bool) error
}

type reportOutcome int

const (
	outcomeProcessed reportOutcome = iota
	outcomeSkipped
	outcomeFailed
)

type indexerService struct {
	uowFactory   unitofwork.RepositoryFactory
	contentStore contentstore.ContentStore
	embedder     *embedding.Retryer
	publisher    *nats.Publisher
	logger       logger.ILogger
	locks        *ReportLocks
	// releaseAfterIndex drops the original body from the content store
	// once its sections committed.
	releaseAfterIndex bool
}

func NewIndexerService(
	uowFactory unitofwork.RepositoryFactory,
	contentStore contentstore.ContentStore,
	embedder *embedding.Retryer,
	publisher *nats.Publisher,
	locks *ReportLocks,
	log logger.ILogger,
	releaseAfterIndex bool,
) IIndexerService {
	return &indexerService{
		uowFactory:        uowFactory,
		contentStore:      contentStore,
		embedder:          embedder,
		publisher:         publisher,
		logger:            log,
		locks:             locks,
		releaseAfterIndex: releaseAfterIndex,
	}
}

func (s *indexerService) Reindex(ctx context.Context, params ReindexParams) (*ReindexResult, error) {
	if params.PageSize <= 0 {
		params.PageSize = 50
	}

	result := &ReindexResult{LastId: params.AfterId}
	cursor := params.AfterId
	cursorFrozen := false

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		uow := s.uowFactory.NewUnitOfWork(ctx)
		page, err := uow.ReportRepository().NextPage(ctx, cursor, params.PageSize)
		if err != nil {
			return result, fmt.Errorf("fetch report page: %w", err)
		}
		if len(page) == 0 {
			return result, nil
		}

		for _, report := range page {
			outcome := s.indexReport(ctx, report.Id, params.Refresh)
			switch outcome {
			case outcomeProcessed:
				result.Processed++
			case outcomeSkipped:
				result.Skipped++
			case outcomeFailed:
				result.Failed++
			}

			// The resume cursor never moves past a failed report, so a
			// rerun retries it. Later successes are safe to repeat thanks
			// to the checksum gate.
			if outcome == outcomeFailed {
				cursorFrozen = true
			} else if !cursorFrozen {
				result.LastId = report.Id
			}
		}

		cursor = page[len(page)-1].Id
	}
}

func (s *indexerService) ReindexReport(ctx context.Context, reportId uuid.UUID, refresh bool) error {
	switch s.indexReport(ctx, reportId, refresh) {
	case outcomeFailed:
		return fmt.Errorf("indexing report %s failed", reportId)
	default:
		return nil
	}
}

// indexReport brings one report's section index in line with its stored
// body. The full section replacement and the checksum update share one
// transaction; on any failure the report keeps its previous index intact.
func (s *indexerService) indexReport(ctx context.Context, reportId uuid.UUID, refresh bool) reportOutcome {
	key := reportId.String()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// Re-read inside the lock: a concurrent purge may have won.
	report, err := uow.ReportRepository().FindOne(ctx, specification.ByID{ID: reportId})
	if err != nil {
		s.logger.Error("indexer", "failed to load report", map[string]interface{}{"report_id": key, "error": err.Error()})
		return outcomeFailed
	}
	if report == nil {
		s.logger.Info("indexer", "report gone, skipping", map[string]interface{}{"report_id": key})
		return outcomeSkipped
	}

	body, err := s.contentStore.Fetch(ctx, report.ContentKey)
	if err != nil {
		if errors.Is(err, contentstore.ErrNotFound) {
			s.logger.Info("indexer", "no stored body, skipping", map[string]interface{}{"report_id": key})
			return outcomeSkipped
		}
		s.logger.Error("indexer", "content fetch failed", map[string]interface{}{"report_id": key, "error": err.Error()})
		return outcomeFailed
	}
	if body == "" {
		// An empty object means the body was already released.
		s.logger.Info("indexer", "empty body, skipping", map[string]interface{}{"report_id": key})
		return outcomeSkipped
	}

	checksum, sections, err := segment.Segment(body)
	if err != nil {
		s.logger.Error("indexer", "segmentation failed", map[string]interface{}{"report_id": key, "error": err.Error()})
		return outcomeFailed
	}

	if !refresh && checksum == report.Checksum {
		return outcomeSkipped
	}

	embeddings, err := s.embedSections(ctx, report, sections)
	if err != nil {
		// The report keeps its old sections and old checksum, so the next
		// pass retries from scratch.
		s.logger.Error("indexer", "embedding failed, report aborted", map[string]interface{}{"report_id": key, "error": err.Error()})
		return outcomeFailed
	}

	if err := s.replaceSections(ctx, report.Id, checksum, embeddings); err != nil {
		s.logger.Error("indexer", "section replacement failed", map[string]interface{}{"report_id": key, "error": err.Error()})
		return outcomeFailed
	}

	s.logger.Info("indexer", "report indexed", map[string]interface{}{
		"report_id": key,
		"sections":  len(embeddings),
	})

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.NewReportIndexed(key, len(embeddings))); err != nil {
			s.logger.Warn("indexer", "failed to publish indexed event", map[string]interface{}{"report_id": key, "error": err.Error()})
		}
	}

	if s.releaseAfterIndex {
		if err := s.contentStore.Release(ctx, report.ContentKey); err != nil {
			// Best effort. The checksum gate makes a re-fetch harmless.
			s.logger.Warn("indexer", "content release failed", map[string]interface{}{"report_id": key, "error": err.Error()})
		}
	}

	return outcomeProcessed
}

func (s *indexerService) embedSections(ctx context.Context, report *entity.Report, sections []segment.Section) ([]*entity.SectionEmbedding, error) {
	embeddings := make([]*entity.SectionEmbedding, 0, len(sections))
	for _, sec := range sections {
		document := embedDocument(report.Title, sec)
		res, err := s.embedder.GenerateContext(ctx, document, embedding.TaskRetrievalDocument)
		if err != nil {
			return nil, fmt.Errorf("embed section %q: %w", sec.Slug, err)
		}

		embeddings = append(embeddings, &entity.SectionEmbedding{
			Id:             uuid.New(),
			ReportId:       report.Id,
			Slug:           sec.Slug,
			Heading:        sec.Heading,
			Content:        sec.Content,
			EmbeddingValue: res.Embedding.Values,
			Position:       sec.Position,
			CreatedAt:      time.Now(),
		})
	}
	return embeddings, nil
}

// embedDocument frames a section with its report context so the vector
// carries which app the text is about, not just the text itself.
func embedDocument(reportTitle string, sec segment.Section) string {
	heading := sec.Heading
	if heading == "" {
		heading = "Overview"
	}
	return fmt.Sprintf("Report: %s\nSection: %s\n\n%s", reportTitle, heading, sec.Content)
}

func (s *indexerService) replaceSections(ctx context.Context, reportId uuid.UUID, checksum string, embeddings []*entity.SectionEmbedding) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.SectionEmbeddingRepository().DeleteByReportId(ctx, reportId); err != nil {
		return fmt.Errorf("delete old sections: %w", err)
	}
	if err := uow.SectionEmbeddingRepository().CreateBulk(ctx, embeddings); err != nil {
		return fmt.Errorf("create sections: %w", err)
	}
	if err := uow.ReportRepository().UpdateChecksum(ctx, reportId, checksum); err != nil {
		return fmt.Errorf("update checksum: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
