package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatCitation attributes part of an answer to a section of a source report.
type ChatCitation struct {
	Id            uuid.UUID
	ChatMessageId uuid.UUID
	ReportId      uuid.UUID
	SectionSlug   string
	Excerpt       string
	Similarity    float64
	CreatedAt     time.Time

	Report *Report
}
