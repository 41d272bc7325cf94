package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "REPORT_INDEXED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the common concrete implementation.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Event type codes.
const (
	TypeReportIndexed    = "REPORT_INDEXED"
	TypeReportRegistered = "REPORT_REGISTERED"
	TypeChatAnswered     = "CHAT_ANSWERED"
)

// NewReportIndexed builds the event emitted after a report's sections were
// replaced and its checksum committed.
func NewReportIndexed(reportId string, sections int) Event {
	return BaseEvent{
		Type: TypeReportIndexed,
		Data: map[string]interface{}{
			"report_id": reportId,
			"sections":  sections,
		},
		OccurredAt: time.Now(),
	}
}
