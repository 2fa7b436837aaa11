package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-intake/internal/domain"
	"github.com/spec-kit/ticket-intake/internal/events"
	"github.com/spec-kit/ticket-intake/internal/notify"
)

// Outcome labels recorded for submissions.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// SubmissionRecorder counts workflow outcomes.
type SubmissionRecorder interface {
	RecordSubmission(outcome string)
	RecordValidationFailure(field string)
}

// NotificationService turns workflow events into notices for the requester.
type NotificationService struct {
	dispatcher events.Dispatcher
	sink       notify.Sink
	recorder   SubmissionRecorder
	logger     *zap.Logger
}

// NewNotificationService creates the service. recorder may be nil.
func NewNotificationService(dispatcher events.Dispatcher, sink notify.Sink, recorder SubmissionRecorder, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		sink:       sink,
		recorder:   recorder,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventDraftRejected, n.handleDraftRejected)
	n.dispatcher.Subscribe(events.EventSubmissionStarted, n.handleSubmissionStarted)
	n.dispatcher.Subscribe(events.EventSubmissionSucceeded, n.handleSubmissionSucceeded)
	n.dispatcher.Subscribe(events.EventSubmissionFailed, n.handleSubmissionFailed)
	n.dispatcher.Subscribe(events.EventFormRestarted, n.handleFormRestarted)
	n.dispatcher.Subscribe(events.EventPasswordReset, n.handlePasswordReset)
	n.dispatcher.Subscribe(events.EventPasswordResetFailed, n.handlePasswordResetFailed)
}

func (n *NotificationService) handleDraftRejected(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.DraftRejectedPayload)
	if n.recorder != nil {
		n.recorder.RecordValidationFailure(payload.Field)
	}
	return n.emit(ctx, event, domain.NoticeError, "Validation error", payload.Message)
}

func (n *NotificationService) handleSubmissionStarted(_ context.Context, event events.Event) error {
	n.logger.Info("SubmissionStarted", zap.String("form_id", event.FormID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleSubmissionSucceeded(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.SubmissionSucceededPayload)
	if n.recorder != nil {
		n.recorder.RecordSubmission(OutcomeSuccess)
	}
	desc := fmt.Sprintf("Your ticket %s has been created.", payload.Receipt.ID)
	if payload.Receipt.ConfirmedEmail != "" {
		desc += fmt.Sprintf(" A confirmation will be sent to %s.", payload.Receipt.ConfirmedEmail)
	}
	return n.emit(ctx, event, domain.NoticeSuccess, "Ticket created", desc)
}

func (n *NotificationService) handleSubmissionFailed(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.SubmissionFailedPayload)
	if n.recorder != nil {
		n.recorder.RecordSubmission(OutcomeFailure)
	}
	msg := payload.Message
	if msg == "" {
		msg = GenericSubmissionFailure
	}
	return n.emit(ctx, event, domain.NoticeError, "Ticket creation failed", msg)
}

func (n *NotificationService) handleFormRestarted(_ context.Context, event events.Event) error {
	n.logger.Debug("FormRestarted", zap.String("form_id", event.FormID))
	return nil
}

func (n *NotificationService) handlePasswordReset(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.PasswordResetPayload)
	msg := payload.Message
	if msg == "" {
		msg = PasswordResetSuccessMessage
	}
	return n.emit(ctx, event, domain.NoticeSuccess, "Password reset", msg)
}

func (n *NotificationService) handlePasswordResetFailed(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.PasswordResetPayload)
	msg := payload.Message
	if msg == "" {
		msg = PasswordResetFailureMessage
	}
	return n.emit(ctx, event, domain.NoticeError, "Password reset failed", msg)
}

func (n *NotificationService) emit(ctx context.Context, event events.Event, level domain.NoticeLevel, title, description string) error {
	if n.sink == nil {
		return nil
	}
	return n.sink.Deliver(ctx, domain.Notice{
		FormID:      event.FormID,
		Level:       level,
		Title:       title,
		Description: description,
		CreatedAt:   event.Timestamp,
	})
}
