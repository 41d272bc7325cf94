package dto

import (
	"time"

	"github.com/google/uuid"
)

type RegisterReportRequest struct {
	Title       string                 `json:"title" validate:"required,max=255"`
	Description string                 `json:"description" validate:"required"`
	ContentKey  string                 `json:"content_key" validate:"required"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type RegisterReportResponse struct {
	Id uuid.UUID `json:"id"`
}

type GetReportResponse struct {
	Id          uuid.UUID              `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Checksum    string                 `json:"checksum,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   *time.Time             `json:"updated_at"`
}

type ReindexRequest struct {
	AfterId  uuid.UUID `json:"after_id"`
	PageSize int       `json:"page_size" validate:"max=500"`
	Refresh  bool      `json:"refresh"`
}

type ReindexResponse struct {
	Processed int       `json:"processed"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	LastId    uuid.UUID `json:"last_id"`
}

// PublishReindexReportMessage is the watermill payload queued when a report
// is registered or its body changes.
type PublishReindexReportMessage struct {
	ReportId uuid.UUID `json:"report_id"`
	Refresh  bool      `json:"refresh"`
}
