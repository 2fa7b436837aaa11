package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-intake/internal/api/dto"
	"github.com/spec-kit/ticket-intake/internal/auth"
	"github.com/spec-kit/ticket-intake/internal/domain"
	"github.com/spec-kit/ticket-intake/internal/service"
	apperrors "github.com/spec-kit/ticket-intake/pkg/util/errorutil"
)

// AttachmentField is the multipart field carrying uploaded files.
const AttachmentField = "attachments"

// NoticeReader hands out the pending notices of a form.
type NoticeReader interface {
	Drain(formID string) []domain.Notice
}

// FormsHandler exposes the ticket form sessions.
type FormsHandler struct {
	forms   *service.FormService
	notices NoticeReader
}

// NewFormsHandler constructs handler.
func NewFormsHandler(forms *service.FormService, notices NoticeReader) *FormsHandler {
	return &FormsHandler{forms: forms, notices: notices}
}

// Open POST /forms.
func (h *FormsHandler) Open(c *fiber.Ctx) error {
	session, ok := auth.SessionFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}
	wf, err := h.forms.Open(session)
	if err != nil {
		return mapFormError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewFormResponse(wf.Snapshot())})
}

// Get GET /forms/:id.
func (h *FormsHandler) Get(c *fiber.Ctx) error {
	wf, err := h.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFormResponse(wf.Snapshot())})
}

// Update PATCH /forms/:id.
func (h *FormsHandler) Update(c *fiber.Ctx) error {
	wf, err := h.lookup(c)
	if err != nil {
		return err
	}
	var req dto.UpdateFormRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	patch, err := draftPatch(req)
	if err != nil {
		return err
	}
	if err := wf.Apply(patch); err != nil {
		return mapFormError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewFormResponse(wf.Snapshot())})
}

// AddAttachments POST /forms/:id/attachments.
func (h *FormsHandler) AddAttachments(c *fiber.Ctx) error {
	wf, err := h.lookup(c)
	if err != nil {
		return err
	}
	form, err := c.MultipartForm()
	if err != nil {
		return apperrors.NewBadRequest("multipart form required", nil)
	}
	headers := form.File[AttachmentField]
	if len(headers) == 0 {
		return apperrors.NewBadRequest("no files in field "+AttachmentField, nil)
	}
	files := make([]domain.Attachment, 0, len(headers))
	for _, fh := range headers {
		att, err := domain.NewUploadedAttachment(fh)
		if err != nil {
			return apperrors.NewBadRequest("unreadable upload", map[string]any{"file": fh.Filename})
		}
		files = append(files, att)
	}
	if err := wf.AddAttachments(files...); err != nil {
		return mapFormError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewFormResponse(wf.Snapshot())})
}

// RemoveAttachment DELETE /forms/:id/attachments/:index.
func (h *FormsHandler) RemoveAttachment(c *fiber.Ctx) error {
	wf, err := h.lookup(c)
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return apperrors.NewBadRequest("index must be a number", nil)
	}
	if err := wf.RemoveAttachment(index); err != nil {
		return mapFormError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewFormResponse(wf.Snapshot())})
}

// Submit POST /forms/:id/submit.
func (h *FormsHandler) Submit(c *fiber.Ctx) error {
	wf, err := h.lookup(c)
	if err != nil {
		return err
	}
	if _, err := wf.Submit(c.UserContext()); err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			return apperrors.NewValidationError(verr.Field, verr.Message)
		case errors.Is(err, service.ErrSubmissionInFlight), errors.Is(err, service.ErrFormCompleted):
			return mapFormError(err)
		}
		snap := wf.Snapshot()
		return apperrors.NewSubmissionFailed(snap.LastError, map[string]any{"form": dto.NewFormResponse(snap)}, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewFormResponse(wf.Snapshot())})
}

// CreateAnother POST /forms/:id/another.
func (h *FormsHandler) CreateAnother(c *fiber.Ctx) error {
	wf, err := h.lookup(c)
	if err != nil {
		return err
	}
	if err := wf.CreateAnother(); err != nil {
		return mapFormError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewFormResponse(wf.Snapshot())})
}

// Discard DELETE /forms/:id.
func (h *FormsHandler) Discard(c *fiber.Ctx) error {
	session, ok := auth.SessionFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}
	if err := h.forms.Discard(c.UserContext(), session, c.Params("id")); err != nil {
		return mapFormError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Notices GET /forms/:id/notices returns and clears pending notices.
func (h *FormsHandler) Notices(c *fiber.Ctx) error {
	wf, err := h.lookup(c)
	if err != nil {
		return err
	}
	notices := []domain.Notice{}
	if h.notices != nil {
		if pending := h.notices.Drain(wf.ID()); pending != nil {
			notices = pending
		}
	}
	return c.JSON(fiber.Map{"data": notices})
}

// Receipts GET /receipts.
func (h *FormsHandler) Receipts(c *fiber.Ctx) error {
	session, ok := auth.SessionFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	records, err := h.forms.Receipts(c.UserContext(), session, pageSize, (page-1)*pageSize)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.ReceiptResponse, 0, len(records))
	for _, r := range records {
		items = append(items, dto.ReceiptResponse{
			TicketID:    r.TicketID,
			Title:       r.Title,
			Priority:    r.Priority,
			SubmittedAt: r.SubmittedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *FormsHandler) lookup(c *fiber.Ctx) (*service.TicketWorkflow, error) {
	session, ok := auth.SessionFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}
	wf, err := h.forms.Get(session, c.Params("id"))
	if err != nil {
		return nil, mapFormError(err)
	}
	return wf, nil
}

func draftPatch(req dto.UpdateFormRequest) (service.DraftPatch, error) {
	patch := service.DraftPatch{
		Title:       req.Title,
		Description: req.Description,
		UserEmail:   req.UserEmail,
	}
	if req.Category != nil {
		v, err := domain.ParseCategory(*req.Category)
		if err != nil {
			return patch, apperrors.NewValidationError(service.FieldCategory, err.Error())
		}
		patch.Category = &v
	}
	if req.Priority != nil {
		v, err := domain.ParsePriority(*req.Priority)
		if err != nil {
			return patch, apperrors.NewValidationError(service.FieldPriority, err.Error())
		}
		patch.Priority = &v
	}
	if req.Type != nil {
		v, err := domain.ParseTicketType(*req.Type)
		if err != nil {
			return patch, apperrors.NewValidationError(service.FieldType, err.Error())
		}
		patch.Type = &v
	}
	return patch, nil
}

func mapFormError(err error) error {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return apperrors.NewUnauthenticated("authentication required")
	case errors.Is(err, service.ErrFormNotFound):
		return apperrors.NewNotFound("form", nil)
	case errors.Is(err, service.ErrAttachmentIndex):
		return apperrors.NewNotFound("attachment", nil)
	case errors.Is(err, service.ErrSubmissionInFlight):
		return apperrors.NewConflict("SUBMISSION_IN_FLIGHT", err.Error(), nil)
	case errors.Is(err, service.ErrFormCompleted):
		return apperrors.NewConflict("FORM_COMPLETED", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidTransition):
		return apperrors.NewConflict("INVALID_TRANSITION", err.Error(), nil)
	case errors.Is(err, service.ErrTooManyForms):
		return apperrors.NewTooManyRequests("TOO_MANY_FORMS", err.Error())
	}
	return apperrors.MapError(err)
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
