// Package authapi talks to the authentication backend on behalf of the
// password reset page.
package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ResetRequest is the body expected by the reset endpoint.
type ResetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ResetError reports a rejected or failed reset call.
type ResetError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ResetError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auth api: status %d: %s", e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("auth api: %v", e.Err)
	}
	return fmt.Sprintf("auth api: status %d", e.StatusCode)
}

func (e *ResetError) Unwrap() error { return e.Err }

// HTTPResetClient posts reset requests as JSON.
type HTTPResetClient struct {
	endpoint string
}

// NewHTTPResetClient constructs the client.
func NewHTTPResetClient(endpoint string) *HTTPResetClient {
	return &HTTPResetClient{endpoint: endpoint}
}

// ResetPassword returns the backend's confirmation text, which may be empty.
func (c *HTTPResetClient) ResetPassword(ctx context.Context, req ResetRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &ResetError{Err: err}
	}
	agent := fiber.Post(c.endpoint)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.JSON(req)

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", &ResetError{Err: errors.Join(errs...)}
	}
	msg := responseMessage(body)
	if status < 200 || status > 299 {
		return "", &ResetError{StatusCode: status, Message: msg}
	}
	return msg, nil
}

// responseMessage accepts a JSON envelope or a plain-text body.
func responseMessage(body []byte) string {
	var env struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if len(env.Error) > 0 {
			var text string
			if json.Unmarshal(env.Error, &text) == nil {
				return text
			}
			var obj struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(env.Error, &obj) == nil && obj.Message != "" {
				return obj.Message
			}
		}
		return env.Message
	}
	return strings.TrimSpace(string(body))
}

// SimulatedResetClient waits and reports success.
type SimulatedResetClient struct {
	Delay time.Duration
}

// ResetPassword waits for Delay or until ctx is done.
func (c *SimulatedResetClient) ResetPassword(ctx context.Context, _ ResetRequest) (string, error) {
	if c.Delay <= 0 {
		return "", nil
	}
	timer := time.NewTimer(c.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return "", &ResetError{Err: ctx.Err()}
	case <-timer.C:
		return "", nil
	}
}
