package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-intake/internal/client/ticketapi"
	"github.com/spec-kit/ticket-intake/internal/domain"
	"github.com/spec-kit/ticket-intake/internal/events"
)

var (
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	ErrFormCompleted      = errors.New("form already submitted")
	ErrInvalidTransition  = errors.New("transition not allowed from current status")
	ErrAttachmentIndex    = errors.New("attachment index out of range")
)

// GenericSubmissionFailure is shown when the backend gives no usable message.
const GenericSubmissionFailure = "An error occurred while creating the ticket. Please try again."

// AttachmentHint is the upload guidance rendered next to the file picker.
const AttachmentHint = "PNG, JPG, PDF up to 10MB each"

// AcceptedExtensions lists the file picker filter. It is advisory only.
var AcceptedExtensions = []string{".jpg", ".jpeg", ".png", ".pdf", ".doc", ".docx", ".txt"}

// Submitter delivers a packaged draft to the ticket backend.
type Submitter interface {
	Submit(ctx context.Context, session domain.Session, payload ticketapi.Payload) (*ticketapi.Result, error)
}

// WorkflowDependencies bundles what a workflow needs.
type WorkflowDependencies struct {
	FormID     string
	Session    domain.Session
	Submitter  Submitter
	Dispatcher events.Dispatcher
	Clock      func() time.Time
	Logger     *zap.Logger
}

// DraftPatch updates only the non-nil fields.
type DraftPatch struct {
	Title       *string
	Description *string
	Category    *domain.Category
	Priority    *domain.TicketPriority
	Type        *domain.TicketType
	UserEmail   *string
}

// AttachmentInfo is one row of the attachment list.
type AttachmentInfo struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Size  int64  `json:"size"`
}

// DraftSummary is display data derived from the draft on every snapshot.
type DraftSummary struct {
	Category           *domain.Option      `json:"category,omitempty"`
	Priority           *domain.Option      `json:"priority,omitempty"`
	Type               *domain.Option      `json:"type,omitempty"`
	ResponseTime       domain.ResponseTime `json:"response_time"`
	Attachments        []AttachmentInfo    `json:"attachments"`
	AttachmentHint     string              `json:"attachment_hint"`
	AcceptedExtensions []string            `json:"accepted_extensions"`
}

// FormSnapshot is a consistent copy of the workflow state.
type FormSnapshot struct {
	ID        string
	Status    domain.SubmissionStatus
	Draft     domain.TicketDraft
	Receipt   *domain.TicketReceipt
	LastError string
	Summary   DraftSummary
}

// TicketWorkflow drives a single form session from draft to receipt.
type TicketWorkflow struct {
	mu         sync.Mutex
	id         string
	session    domain.Session
	submitter  Submitter
	dispatcher events.Dispatcher
	clock      func() time.Time
	logger     *zap.Logger

	status    domain.SubmissionStatus
	draft     domain.TicketDraft
	receipt   *domain.TicketReceipt
	lastError string
	touched   time.Time
}

// NewTicketWorkflow constructs an idle workflow with an empty draft.
func NewTicketWorkflow(deps WorkflowDependencies) *TicketWorkflow {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	id := deps.FormID
	if id == "" {
		id = uuid.NewString()
	}
	return &TicketWorkflow{
		id:         id,
		session:    deps.Session,
		submitter:  deps.Submitter,
		dispatcher: deps.Dispatcher,
		clock:      clock,
		logger:     logger.With(zap.String("form_id", id)),
		status:     domain.SubmissionIdle,
		touched:    clock(),
	}
}

// ID returns the form identifier.
func (w *TicketWorkflow) ID() string { return w.id }

// Touch records that the requester used the form.
func (w *TicketWorkflow) Touch() {
	w.mu.Lock()
	w.touched = w.clock()
	w.mu.Unlock()
}

// idleFor reports how long the form has gone unused. A running submission
// is never idle.
func (w *TicketWorkflow) idleFor(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status == domain.SubmissionSubmitting {
		return 0
	}
	return now.Sub(w.touched)
}

// Session returns the session the workflow was opened with.
func (w *TicketWorkflow) Session() domain.Session { return w.session }

// SetTitle replaces the title.
func (w *TicketWorkflow) SetTitle(v string) error {
	return w.edit(func(d *domain.TicketDraft) { d.Title = v })
}

// SetDescription replaces the description.
func (w *TicketWorkflow) SetDescription(v string) error {
	return w.edit(func(d *domain.TicketDraft) { d.Description = v })
}

// SetCategory replaces the category.
func (w *TicketWorkflow) SetCategory(v domain.Category) error {
	return w.edit(func(d *domain.TicketDraft) { d.Category = v })
}

// SetPriority replaces the priority.
func (w *TicketWorkflow) SetPriority(v domain.TicketPriority) error {
	return w.edit(func(d *domain.TicketDraft) { d.Priority = v })
}

// SetType replaces the ticket type.
func (w *TicketWorkflow) SetType(v domain.TicketType) error {
	return w.edit(func(d *domain.TicketDraft) { d.Type = v })
}

// SetUserEmail replaces the confirmation email.
func (w *TicketWorkflow) SetUserEmail(v string) error {
	return w.edit(func(d *domain.TicketDraft) { d.UserEmail = v })
}

// Apply sets every field present in p in one step.
func (w *TicketWorkflow) Apply(p DraftPatch) error {
	return w.edit(func(d *domain.TicketDraft) {
		if p.Title != nil {
			d.Title = *p.Title
		}
		if p.Description != nil {
			d.Description = *p.Description
		}
		if p.Category != nil {
			d.Category = *p.Category
		}
		if p.Priority != nil {
			d.Priority = *p.Priority
		}
		if p.Type != nil {
			d.Type = *p.Type
		}
		if p.UserEmail != nil {
			d.UserEmail = *p.UserEmail
		}
	})
}

// AddAttachments appends to the attachment list, keeping existing entries.
func (w *TicketWorkflow) AddAttachments(files ...domain.Attachment) error {
	return w.edit(func(d *domain.TicketDraft) {
		for _, f := range files {
			if f != nil {
				d.Attachments = append(d.Attachments, f)
			}
		}
	})
}

// RemoveAttachment drops the attachment at index; later entries shift down.
func (w *TicketWorkflow) RemoveAttachment(index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.editableLocked(); err != nil {
		return err
	}
	if index < 0 || index >= len(w.draft.Attachments) {
		return ErrAttachmentIndex
	}
	atts := make([]domain.Attachment, 0, len(w.draft.Attachments)-1)
	atts = append(atts, w.draft.Attachments[:index]...)
	w.draft.Attachments = append(atts, w.draft.Attachments[index+1:]...)
	return nil
}

// Validate reports the first validation failure of the current draft
// without emitting a notice.
func (w *TicketWorkflow) Validate() *ValidationError {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ValidateDraft(w.draft)
}

// Submit validates the draft and, when it passes, sends it once. A failed
// validation leaves the status untouched. The context is forwarded to the
// submitter as is.
func (w *TicketWorkflow) Submit(ctx context.Context) (*domain.TicketReceipt, error) {
	w.mu.Lock()
	switch w.status {
	case domain.SubmissionSubmitting:
		w.mu.Unlock()
		return nil, ErrSubmissionInFlight
	case domain.SubmissionSuccess:
		w.mu.Unlock()
		return nil, ErrFormCompleted
	}
	if verr := ValidateDraft(w.draft); verr != nil {
		w.mu.Unlock()
		w.publish(ctx, events.EventDraftRejected, events.DraftRejectedPayload{Field: verr.Field, Message: verr.Message})
		return nil, verr
	}
	w.status = domain.SubmissionSubmitting
	w.lastError = ""
	draft := w.draft.Clone()
	w.mu.Unlock()

	w.publish(ctx, events.EventSubmissionStarted, events.SubmissionStartedPayload{
		Category:    draft.Category,
		Priority:    draft.Priority,
		Type:        draft.Type,
		Attachments: len(draft.Attachments),
	})

	result, err := w.send(ctx, draft)
	if err != nil {
		msg, status := failureMessage(err)
		w.mu.Lock()
		w.status = domain.SubmissionError
		w.lastError = msg
		w.touched = w.clock()
		w.mu.Unlock()
		w.logger.Warn("ticket submission failed", zap.Error(err))
		w.publish(ctx, events.EventSubmissionFailed, events.SubmissionFailedPayload{Message: msg, StatusCode: status})
		return nil, err
	}

	receipt := domain.TicketReceipt{
		ID:             result.TicketID,
		ConfirmedEmail: strings.TrimSpace(draft.UserEmail),
		SubmittedAt:    w.clock(),
	}
	w.mu.Lock()
	w.status = domain.SubmissionSuccess
	w.receipt = &receipt
	w.draft.Reset()
	w.touched = w.clock()
	w.mu.Unlock()

	w.logger.Info("ticket submitted", zap.String("ticket_id", receipt.ID))
	w.publish(ctx, events.EventSubmissionSucceeded, events.SubmissionSucceededPayload{Receipt: receipt, Title: draft.Title, Priority: draft.Priority})
	out := receipt
	return &out, nil
}

func (w *TicketWorkflow) send(ctx context.Context, draft domain.TicketDraft) (*ticketapi.Result, error) {
	if w.submitter == nil {
		return nil, &ticketapi.SubmissionError{Err: errors.New("no submitter configured")}
	}
	return w.submitter.Submit(ctx, w.session, ticketapi.NewPayload(draft))
}

// CreateAnother dismisses the receipt and returns to an empty idle form.
func (w *TicketWorkflow) CreateAnother() error {
	w.mu.Lock()
	if w.status != domain.SubmissionSuccess {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	w.status = domain.SubmissionIdle
	w.receipt = nil
	w.lastError = ""
	w.draft.Reset()
	w.mu.Unlock()

	w.publish(context.Background(), events.EventFormRestarted, nil)
	return nil
}

// Snapshot copies the current state and derives the display summary.
func (w *TicketWorkflow) Snapshot() FormSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap := FormSnapshot{
		ID:        w.id,
		Status:    w.status,
		Draft:     w.draft.Clone(),
		LastError: w.lastError,
	}
	if w.receipt != nil {
		r := *w.receipt
		snap.Receipt = &r
	}
	snap.Summary = Summarize(snap.Draft)
	return snap
}

// Summarize derives the display data for a draft.
func Summarize(d domain.TicketDraft) DraftSummary {
	s := DraftSummary{
		ResponseTime:       domain.ResponseTimeHint(d.Priority),
		Attachments:        make([]AttachmentInfo, 0, len(d.Attachments)),
		AttachmentHint:     AttachmentHint,
		AcceptedExtensions: append([]string(nil), AcceptedExtensions...),
	}
	if opt, ok := domain.LookupCategory(d.Category); ok {
		s.Category = &opt
	}
	if opt, ok := domain.LookupPriority(d.Priority); ok {
		s.Priority = &opt
	}
	if opt, ok := domain.LookupTicketType(d.Type); ok {
		s.Type = &opt
	}
	for i, a := range d.Attachments {
		s.Attachments = append(s.Attachments, AttachmentInfo{Index: i, Name: a.Name(), Size: a.Size()})
	}
	return s
}

func (w *TicketWorkflow) edit(apply func(*domain.TicketDraft)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.editableLocked(); err != nil {
		return err
	}
	apply(&w.draft)
	return nil
}

func (w *TicketWorkflow) editableLocked() error {
	switch w.status {
	case domain.SubmissionSubmitting:
		return ErrSubmissionInFlight
	case domain.SubmissionSuccess:
		return ErrFormCompleted
	}
	return nil
}

// publish is fire-and-forget: handler failures are logged, never returned.
func (w *TicketWorkflow) publish(ctx context.Context, typ events.EventType, payload interface{}) {
	if w.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      typ,
		FormID:    w.id,
		Actor:     events.Actor{Email: w.session.Email, DisplayName: w.session.DisplayName},
		Timestamp: w.clock(),
		Payload:   payload,
	}
	if err := w.dispatcher.Publish(ctx, event); err != nil {
		w.logger.Warn("event handler failed", zap.String("event_type", string(typ)), zap.Error(err))
	}
}

// failureMessage picks the server message when there is one.
func failureMessage(err error) (string, int) {
	var subErr *ticketapi.SubmissionError
	if errors.As(err, &subErr) {
		if msg := subErr.ServerMessage(); msg != "" {
			return msg, subErr.StatusCode
		}
		return GenericSubmissionFailure, subErr.StatusCode
	}
	return GenericSubmissionFailure, 0
}
