package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"review-insights-be/internal/dto"
	"review-insights-be/internal/entity"
	"review-insights-be/internal/pkg/logger"
	"review-insights-be/internal/repository/specification"
	"review-insights-be/internal/repository/unitofwork"
	"review-insights-be/pkg/events"
	pkgNats "review-insights-be/pkg/nats"

	"github.com/google/uuid"
)

// IReportService registers generated reports and exposes them for the
// insight surfaces. Report generation itself happens upstream; this side
// only records the result and queues indexing.
type IReportService interface {
	Register(ctx context.Context, req *dto.RegisterReportRequest) (*dto.RegisterReportResponse, error)
	GetAll(ctx context.Context) ([]*dto.GetReportResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.GetReportResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type reportService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	eventPublisher   *pkgNats.Publisher
	locks            *ReportLocks
	logger           logger.ILogger
}

func NewReportService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	eventPublisher *pkgNats.Publisher,
	locks *ReportLocks,
	appLogger logger.ILogger,
) IReportService {
	return &reportService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		locks:            locks,
		logger:           appLogger,
	}
}

func (s *reportService) Register(ctx context.Context, req *dto.RegisterReportRequest) (*dto.RegisterReportResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.ReportRepository().FindOne(ctx, specification.Filter("content_key", req.ContentKey))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New("a report with this content key is already registered")
	}

	report := entity.Report{
		Id:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		ContentKey:  req.ContentKey,
		Metadata:    req.Metadata,
		CreatedAt:   time.Now(),
	}

	if err := uow.ReportRepository().Create(ctx, &report); err != nil {
		return nil, err
	}

	// Queue indexing so registration stays fast.
	msgPayload := dto.PublishReindexReportMessage{
		ReportId: report.Id,
	}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		return nil, err
	}
	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: events.TypeReportRegistered,
			Data: map[string]interface{}{
				"title":     report.Title,
				"report_id": report.Id,
			},
			OccurredAt: time.Now(),
		}
		// Notification side is auxiliary, never fail the request for it.
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("report", "failed to publish registered event", map[string]interface{}{"error": err.Error()})
		}
	}

	return &dto.RegisterReportResponse{Id: report.Id}, nil
}

func (s *reportService) GetAll(ctx context.Context) ([]*dto.GetReportResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	reports, err := uow.ReportRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	resp := make([]*dto.GetReportResponse, 0, len(reports))
	for _, r := range reports {
		resp = append(resp, toReportResponse(r))
	}
	return resp, nil
}

func (s *reportService) Get(ctx context.Context, id uuid.UUID) (*dto.GetReportResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	report, err := uow.ReportRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, fmt.Errorf("report not found")
	}
	return toReportResponse(report), nil
}

func (s *reportService) Delete(ctx context.Context, id uuid.UUID) error {
	// Serialize with the indexer so a concurrent index run cannot commit
	// a fresh section set for a report this transaction soft-deletes.
	key := id.String()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	uow := s.uowFactory.NewUnitOfWork(ctx)

	report, err := uow.ReportRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if report == nil {
		return fmt.Errorf("report not found")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ReportRepository().Delete(ctx, id); err != nil {
		return err
	}
	if err := uow.SectionEmbeddingRepository().DeleteByReportId(ctx, id); err != nil {
		return err
	}

	return uow.Commit()
}

func toReportResponse(r *entity.Report) *dto.GetReportResponse {
	return &dto.GetReportResponse{
		Id:          r.Id,
		Title:       r.Title,
		Description: r.Description,
		Checksum:    r.Checksum,
		Metadata:    r.Metadata,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
