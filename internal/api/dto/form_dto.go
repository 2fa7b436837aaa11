package dto

import (
	"time"

	"github.com/spec-kit/ticket-intake/internal/domain"
	"github.com/spec-kit/ticket-intake/internal/service"
)

// UpdateFormRequest patches the draft; absent fields are left unchanged and
// an empty string clears a selection.
type UpdateFormRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Priority    *string `json:"priority"`
	Type        *string `json:"type"`
	UserEmail   *string `json:"userEmail"`
}

// DraftView is the draft as rendered to the client.
type DraftView struct {
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Category    domain.Category          `json:"category"`
	Priority    domain.TicketPriority    `json:"priority"`
	Type        domain.TicketType        `json:"type"`
	UserEmail   string                   `json:"userEmail"`
	Attachments []service.AttachmentInfo `json:"attachments"`
}

// FormResponse is a form snapshot.
type FormResponse struct {
	ID        string                  `json:"id"`
	Status    domain.SubmissionStatus `json:"status"`
	Draft     DraftView               `json:"draft"`
	Receipt   *domain.TicketReceipt   `json:"receipt,omitempty"`
	LastError string                  `json:"last_error,omitempty"`
	Summary   service.DraftSummary    `json:"summary"`
}

// OptionsResponse lists every selectable value with its presentation.
type OptionsResponse struct {
	Categories         []domain.Option       `json:"categories"`
	Priorities         []domain.Option       `json:"priorities"`
	Types              []domain.Option       `json:"types"`
	ResponseTimes      []domain.ResponseTime `json:"response_times"`
	AttachmentHint     string                `json:"attachment_hint"`
	AcceptedExtensions []string              `json:"accepted_extensions"`
}

// ReceiptResponse is one tracked ticket.
type ReceiptResponse struct {
	TicketID    string                `json:"ticket_id"`
	Title       string                `json:"title"`
	Priority    domain.TicketPriority `json:"priority"`
	SubmittedAt time.Time             `json:"submitted_at"`
}

// PasswordResetRequest payload.
type PasswordResetRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// NewFormResponse renders a snapshot.
func NewFormResponse(s service.FormSnapshot) FormResponse {
	return FormResponse{
		ID:     s.ID,
		Status: s.Status,
		Draft: DraftView{
			Title:       s.Draft.Title,
			Description: s.Draft.Description,
			Category:    s.Draft.Category,
			Priority:    s.Draft.Priority,
			Type:        s.Draft.Type,
			UserEmail:   s.Draft.UserEmail,
			Attachments: s.Summary.Attachments,
		},
		Receipt:   s.Receipt,
		LastError: s.LastError,
		Summary:   s.Summary,
	}
}
