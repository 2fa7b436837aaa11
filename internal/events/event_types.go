package events

import (
	"time"

	"github.com/spec-kit/ticket-intake/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventDraftRejected       EventType = "draft_rejected"
	EventSubmissionStarted   EventType = "submission_started"
	EventSubmissionSucceeded EventType = "submission_succeeded"
	EventSubmissionFailed    EventType = "submission_failed"
	EventFormRestarted       EventType = "form_restarted"
	EventPasswordReset       EventType = "password_reset"
	EventPasswordResetFailed EventType = "password_reset_failed"
)

// Actor identifies who triggered the event.
type Actor struct {
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Event represents a workflow event.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	FormID    string      `json:"form_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// DraftRejectedPayload names the first field that failed validation.
type DraftRejectedPayload struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SubmissionStartedPayload payload.
type SubmissionStartedPayload struct {
	Category    domain.Category       `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
	Type        domain.TicketType     `json:"type"`
	Attachments int                   `json:"attachments"`
}

// SubmissionSucceededPayload carries the receipt plus the fields kept in the receipt log.
type SubmissionSucceededPayload struct {
	Receipt  domain.TicketReceipt  `json:"receipt"`
	Title    string                `json:"title"`
	Priority domain.TicketPriority `json:"priority"`
}

// SubmissionFailedPayload carries the message shown to the requester.
type SubmissionFailedPayload struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
}

// PasswordResetPayload payload.
type PasswordResetPayload struct {
	Message string `json:"message"`
}
