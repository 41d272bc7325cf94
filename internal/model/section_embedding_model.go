package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type SectionEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReportId       uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_report_slug"`
	Slug           string          `gorm:"type:text;uniqueIndex:idx_report_slug"` // empty slug = preamble
	Heading        string          `gorm:"type:text"`
	Content        string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // text-embedding-004 uses 768 dimensions
	Position       int             `gorm:"default:0"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt  `gorm:"index"`
}

func (SectionEmbedding) TableName() string {
	return "report_section_embeddings"
}
