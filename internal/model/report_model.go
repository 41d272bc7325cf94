package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Report struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title       string         `gorm:"type:text;not null"`
	Description string         `gorm:"type:text"` // short descriptive text used for document-level relevance
	ContentKey  string         `gorm:"type:text;not null"`
	Checksum    string         `gorm:"type:varchar(64)"` // sha256 hex of last indexed body
	Metadata    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Report) TableName() string {
	return "reports"
}
