package service

import (
	"strings"

	"github.com/spec-kit/ticket-intake/internal/domain"
)

// Draft field identifiers carried by ValidationError.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldPriority    = "priority"
	FieldType        = "type"
	FieldUserEmail   = "userEmail"
	FieldPassword    = "password"
)

// ValidationError names the first draft field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidateDraft checks the draft in a fixed order and stops at the first
// failure. It returns nil when the draft can be submitted.
func ValidateDraft(d domain.TicketDraft) *ValidationError {
	switch {
	case strings.TrimSpace(d.Title) == "":
		return &ValidationError{Field: FieldTitle, Message: "Title is required"}
	case strings.TrimSpace(d.Description) == "":
		return &ValidationError{Field: FieldDescription, Message: "Description is required"}
	case !d.Category.Valid():
		return &ValidationError{Field: FieldCategory, Message: "Please select a category"}
	case !d.Priority.Valid():
		return &ValidationError{Field: FieldPriority, Message: "Please select a priority"}
	case !d.Type.Valid():
		return &ValidationError{Field: FieldType, Message: "Please select a ticket type"}
	case !plausibleEmail(d.UserEmail):
		return &ValidationError{Field: FieldUserEmail, Message: "A valid email address is required"}
	}
	return nil
}

// plausibleEmail only requires an "@"; the backend owns real address checks.
func plausibleEmail(raw string) bool {
	email := strings.TrimSpace(raw)
	return email != "" && strings.Contains(email, "@")
}
