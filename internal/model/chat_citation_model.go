package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatCitation struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatMessageId uuid.UUID `gorm:"type:uuid;not null;index"`
	ReportId      uuid.UUID `gorm:"type:uuid;not null;index"`
	SectionSlug   string    `gorm:"type:text"`
	Excerpt       string    `gorm:"type:text"`
	Similarity    float64   `gorm:"type:double precision"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`

	Report *Report `gorm:"foreignKey:ReportId;references:Id;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (ChatCitation) TableName() string {
	return "chat_citations"
}
