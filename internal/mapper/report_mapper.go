package mapper

import (
	"encoding/json"
	"time"

	"review-insights-be/internal/entity"
	"review-insights-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ReportMapper struct{}

func NewReportMapper() *ReportMapper {
	return &ReportMapper{}
}

func (m *ReportMapper) ToEntity(r *model.Report) *entity.Report {
	if r == nil {
		return nil
	}

	var deletedAt *time.Time
	if r.DeletedAt.Valid {
		t := r.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt
		updatedAt = &t
	}

	var metadata map[string]interface{}
	if len(r.Metadata) > 0 {
		// Metadata is optional; a decode failure just leaves it nil
		_ = json.Unmarshal(r.Metadata, &metadata)
	}

	return &entity.Report{
		Id:          r.Id,
		Title:       r.Title,
		Description: r.Description,
		ContentKey:  r.ContentKey,
		Checksum:    r.Checksum,
		Metadata:    metadata,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
		IsDeleted:   r.DeletedAt.Valid,
	}
}

func (m *ReportMapper) ToModel(r *entity.Report) *model.Report {
	if r == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if r.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *r.DeletedAt, Valid: true}
	} else if r.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if r.UpdatedAt != nil {
		updatedAt = *r.UpdatedAt
	}

	var metadata datatypes.JSON
	if r.Metadata != nil {
		raw, err := json.Marshal(r.Metadata)
		if err == nil {
			metadata = raw
		}
	}

	return &model.Report{
		Id:          r.Id,
		Title:       r.Title,
		Description: r.Description,
		ContentKey:  r.ContentKey,
		Checksum:    r.Checksum,
		Metadata:    metadata,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
	}
}

func (m *ReportMapper) ToEntities(reports []*model.Report) []*entity.Report {
	entities := make([]*entity.Report, len(reports))
	for i, r := range reports {
		entities[i] = m.ToEntity(r)
	}
	return entities
}
