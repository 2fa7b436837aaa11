package service

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/ticket-intake/internal/client/authapi"
	"github.com/spec-kit/ticket-intake/internal/domain"
	"github.com/spec-kit/ticket-intake/internal/events"
	"github.com/spec-kit/ticket-intake/internal/notify"
)

type fakeResetClient struct {
	calls int
	last  authapi.ResetRequest
	msg   string
	err   error
}

func (f *fakeResetClient) ResetPassword(_ context.Context, req authapi.ResetRequest) (string, error) {
	f.calls++
	f.last = req
	return f.msg, f.err
}

func TestValidatePasswordReset(t *testing.T) {
	tests := []struct {
		name    string
		form    domain.PasswordResetForm
		wantErr string
	}{
		{"ok", domain.PasswordResetForm{NewPassword: "longenough", ConfirmPassword: "longenough"}, ""},
		{"mismatch checked first", domain.PasswordResetForm{NewPassword: "short", ConfirmPassword: "other"}, "Passwords do not match"},
		{"too short", domain.PasswordResetForm{NewPassword: "short", ConfirmPassword: "short"}, "Password must be at least 8 characters"},
		{"exactly eight", domain.PasswordResetForm{NewPassword: "12345678", ConfirmPassword: "12345678"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidatePasswordReset(tt.form)
			if tt.wantErr == "" {
				if verr != nil {
					t.Fatalf("unexpected %v", verr)
				}
				return
			}
			if verr == nil || verr.Message != tt.wantErr {
				t.Fatalf("got %v, want %q", verr, tt.wantErr)
			}
		})
	}
}

func TestPasswordResetService(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	sink := notify.NewMemorySink(10)
	NewNotificationService(dispatcher, sink, nil, nil).RegisterHandlers()

	client := &fakeResetClient{}
	svc := NewPasswordResetService(client, dispatcher, nil)

	if _, err := svc.Reset(context.Background(), domain.PasswordResetForm{NewPassword: "a", ConfirmPassword: "a"}); err == nil {
		t.Fatal("expected validation error")
	}
	if client.calls != 0 {
		t.Fatalf("client called on invalid form")
	}

	res, err := svc.Reset(context.Background(), domain.PasswordResetForm{Token: "tok", NewPassword: "longenough", ConfirmPassword: "longenough"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Message != PasswordResetSuccessMessage {
		t.Errorf("message = %q", res.Message)
	}
	if client.last.Token != "tok" || client.last.NewPassword != "longenough" {
		t.Errorf("request = %+v", client.last)
	}

	client.err = &authapi.ResetError{StatusCode: 400, Message: "token expired"}
	if _, err := svc.Reset(context.Background(), domain.PasswordResetForm{NewPassword: "longenough", ConfirmPassword: "longenough"}); err == nil {
		t.Fatal("expected client error")
	}
	var resetErr *authapi.ResetError
	notices := sink.Recent("")
	if len(notices) != 2 || notices[1].Level != domain.NoticeError || notices[1].Description != "token expired" {
		t.Fatalf("notices = %+v", notices)
	}
	client.err = errors.New("unreachable")
	_, err = svc.Reset(context.Background(), domain.PasswordResetForm{NewPassword: "longenough", ConfirmPassword: "longenough"})
	if errors.As(err, &resetErr) {
		t.Fatalf("error should pass through untyped: %v", err)
	}
	if got := sink.Recent(""); got[len(got)-1].Description != PasswordResetFailureMessage {
		t.Errorf("fallback notice = %+v", got[len(got)-1])
	}
}
