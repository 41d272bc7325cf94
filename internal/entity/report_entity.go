package entity

import (
	"time"

	"github.com/google/uuid"
)

// Report is a generated market-research document about one marketplace app.
// The body itself lives in the content store under ContentKey; Checksum is
// the hash of the body as of the last successful index run.
type Report struct {
	Id          uuid.UUID
	Title       string
	Description string
	ContentKey  string
	Checksum    string
	Metadata    map[string]interface{}
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}
