package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AfterID selects rows strictly past a cursor position in ascending id
// order. Used by the incremental indexer's corpus pagination.
type AfterID struct {
	ID uuid.UUID
}

func (s AfterID) Apply(db *gorm.DB) *gorm.DB {
	if s.ID == uuid.Nil {
		return db
	}
	return db.Where("id > ?", s.ID)
}

// ByReportID filters rows belonging to one report.
type ByReportID struct {
	ReportID uuid.UUID
}

func (s ByReportID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("report_id = ?", s.ReportID)
}
