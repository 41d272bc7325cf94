package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type GetAllSessionsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type GetChatHistoryResponse struct {
	Id        uuid.UUID     `json:"id"`
	Role      string        `json:"role"`
	Chat      string        `json:"chat"`
	CreatedAt time.Time     `json:"created_at"`
	Citations []CitationDTO `json:"citations,omitempty"`
}

type CitationDTO struct {
	ReportId    uuid.UUID `json:"report_id"`
	Title       string    `json:"title"`
	SectionSlug string    `json:"section_slug"`
	Excerpt     string    `json:"excerpt,omitempty"`
	Similarity  float64   `json:"similarity"`
}

type SendChatRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
	Chat          string    `json:"chat" validate:"required"`
}

type SendChatResponseChat struct {
	Id        uuid.UUID     `json:"id"`
	Chat      string        `json:"chat"`
	Role      string        `json:"role"`
	CreatedAt time.Time     `json:"created_at"`
	Citations []CitationDTO `json:"citations,omitempty"`
}

type SendChatResponse struct {
	ChatSessionId    uuid.UUID             `json:"chat_session_id"`
	ChatSessionTitle string                `json:"title"`
	Sent             *SendChatResponseChat `json:"sent"`
	Reply            *SendChatResponseChat `json:"reply"`
	LowEvidence      bool                  `json:"low_evidence,omitempty"`
}

type DeleteSessionRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id"`
}

type SearchSectionsRequest struct {
	Query string `json:"query" validate:"required"`
	Limit int    `json:"limit" validate:"max=50"`
}

type SectionSearchResult struct {
	ReportId    uuid.UUID `json:"report_id"`
	ReportTitle string    `json:"report_title"`
	Slug        string    `json:"slug"`
	Heading     string    `json:"heading"`
	Excerpt     string    `json:"excerpt"`
	Similarity  float64   `json:"similarity"`
}
