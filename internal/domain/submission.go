package domain

import "time"

// SubmissionStatus enumerates lifecycle states of a form session.
type SubmissionStatus string

const (
	SubmissionIdle       SubmissionStatus = "idle"
	SubmissionSubmitting SubmissionStatus = "submitting"
	SubmissionSuccess    SubmissionStatus = "success"
	SubmissionError      SubmissionStatus = "error"
)

// TicketReceipt confirms a created ticket until the requester dismisses it.
type TicketReceipt struct {
	ID             string    `json:"id"`
	ConfirmedEmail string    `json:"confirmed_email"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// ReceiptRecord is the persisted trace of a receipt, used to track tickets later.
type ReceiptRecord struct {
	ID          string
	TicketID    string
	Email       string
	Title       string
	Priority    TicketPriority
	SubmittedAt time.Time
}
