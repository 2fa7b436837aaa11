package domain

import "strings"

// Session is the credential triple a requester brings into a form session.
type Session struct {
	Token       string
	Email       string
	DisplayName string
}

// Authenticated reports whether both the credential and the email are present.
func (s Session) Authenticated() bool {
	return strings.TrimSpace(s.Token) != "" && strings.TrimSpace(s.Email) != ""
}

// PasswordResetForm carries the reset page fields.
type PasswordResetForm struct {
	Token           string
	NewPassword     string
	ConfirmPassword string
}
