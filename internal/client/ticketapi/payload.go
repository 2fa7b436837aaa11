// Package ticketapi packages ticket drafts for the remote ticket-creation
// endpoint and submits them.
package ticketapi

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-intake/internal/domain"
)

// Multipart field names expected by the ticket backend.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldPriority    = "priority"
	FieldType        = "type"
	FieldUserEmail   = "userEmail"
)

// IndexedAttachment is an attachment bound to its multipart field name.
type IndexedAttachment struct {
	Field      string
	Attachment domain.Attachment
}

// Payload is the transport form of an accepted draft.
type Payload struct {
	Title       string
	Description string
	Category    domain.Category
	Priority    domain.TicketPriority
	Type        domain.TicketType
	UserEmail   string
	Attachments []IndexedAttachment
}

// NewPayload packages d. Attachments are indexed in draft order as attachments[i].
func NewPayload(d domain.TicketDraft) Payload {
	p := Payload{
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		Priority:    d.Priority,
		Type:        d.Type,
		UserEmail:   d.UserEmail,
		Attachments: make([]IndexedAttachment, 0, len(d.Attachments)),
	}
	for i, att := range d.Attachments {
		p.Attachments = append(p.Attachments, IndexedAttachment{
			Field:      fmt.Sprintf("attachments[%d]", i),
			Attachment: att,
		})
	}
	return p
}

// Fields returns the primitive fields in a stable order.
func (p Payload) Fields() [][2]string {
	return [][2]string{
		{FieldTitle, p.Title},
		{FieldDescription, p.Description},
		{FieldCategory, string(p.Category)},
		{FieldPriority, string(p.Priority)},
		{FieldType, string(p.Type)},
		{FieldUserEmail, p.UserEmail},
	}
}

func (p Payload) formFiles() ([]*fiber.FormFile, error) {
	files := make([]*fiber.FormFile, 0, len(p.Attachments))
	for _, att := range p.Attachments {
		content, err := readAttachment(att.Attachment)
		if err != nil {
			return nil, fmt.Errorf("read attachment %q: %w", att.Attachment.Name(), err)
		}
		files = append(files, &fiber.FormFile{
			Fieldname: att.Field,
			Name:      att.Attachment.Name(),
			Content:   content,
		})
	}
	return files, nil
}

func readAttachment(att domain.Attachment) ([]byte, error) {
	rc, err := att.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Result is what the backend confirms for a created ticket.
type Result struct {
	TicketID string
}
