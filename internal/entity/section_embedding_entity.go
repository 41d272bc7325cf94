package entity

import (
	"time"

	"github.com/google/uuid"
)

// SectionEmbedding is one heading-delimited section of a report together
// with its embedding vector. Identity is (ReportId, Slug); the preamble
// section before the first heading has an empty slug and position 0.
type SectionEmbedding struct {
	Id             uuid.UUID
	ReportId       uuid.UUID
	Slug           string
	Heading        string
	Content        string
	EmbeddingValue []float32
	Position       int
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
