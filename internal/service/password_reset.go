package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-intake/internal/client/authapi"
	"github.com/spec-kit/ticket-intake/internal/domain"
	"github.com/spec-kit/ticket-intake/internal/events"
)

const (
	MinPasswordLength           = 8
	PasswordResetSuccessMessage = "Your password has been reset successfully!"
	PasswordResetFailureMessage = "An error occurred while resetting your password"
)

// PasswordResetClient forwards a reset to the authentication backend.
type PasswordResetClient interface {
	ResetPassword(ctx context.Context, req authapi.ResetRequest) (string, error)
}

// PasswordResetResult is returned on success.
type PasswordResetResult struct {
	Message string `json:"message"`
}

// ValidatePasswordReset requires matching passwords first, then a minimum length.
func ValidatePasswordReset(form domain.PasswordResetForm) *ValidationError {
	if form.NewPassword != form.ConfirmPassword {
		return &ValidationError{Field: FieldPassword, Message: "Passwords do not match"}
	}
	if len([]rune(form.NewPassword)) < MinPasswordLength {
		return &ValidationError{Field: FieldPassword, Message: "Password must be at least 8 characters"}
	}
	return nil
}

// PasswordResetService handles the reset page.
type PasswordResetService struct {
	client     PasswordResetClient
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewPasswordResetService constructs the service.
func NewPasswordResetService(client PasswordResetClient, dispatcher events.Dispatcher, logger *zap.Logger) *PasswordResetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PasswordResetService{client: client, dispatcher: dispatcher, logger: logger}
}

// Reset validates the form and forwards it. Validation failures are returned
// as *ValidationError and never reach the backend.
func (s *PasswordResetService) Reset(ctx context.Context, form domain.PasswordResetForm) (*PasswordResetResult, error) {
	if verr := ValidatePasswordReset(form); verr != nil {
		return nil, verr
	}
	msg, err := s.client.ResetPassword(ctx, authapi.ResetRequest{Token: form.Token, NewPassword: form.NewPassword})
	if err != nil {
		s.logger.Warn("password reset failed", zap.Error(err))
		shown := PasswordResetFailureMessage
		var resetErr *authapi.ResetError
		if errors.As(err, &resetErr) && resetErr.Message != "" {
			shown = resetErr.Message
		}
		s.publish(ctx, events.EventPasswordResetFailed, shown)
		return nil, err
	}
	if msg == "" {
		msg = PasswordResetSuccessMessage
	}
	s.publish(ctx, events.EventPasswordReset, msg)
	return &PasswordResetResult{Message: msg}, nil
}

func (s *PasswordResetService) publish(ctx context.Context, typ events.EventType, msg string) {
	if s.dispatcher == nil {
		return
	}
	err := s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Timestamp: time.Now().UTC(),
		Payload:   events.PasswordResetPayload{Message: msg},
	})
	if err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(typ)), zap.Error(err))
	}
}
