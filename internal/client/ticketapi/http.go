package ticketapi

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-intake/internal/domain"
)

// ErrMissingCredential is returned when the deployment requires a bearer
// token and the session carries none.
var ErrMissingCredential = errors.New("session has no credential")

// HTTPConfig configures the HTTP submitter.
type HTTPConfig struct {
	Endpoint    string
	RequireAuth bool
	// Timeout bounds the transport only; zero leaves the call unbounded.
	Timeout time.Duration
}

// HTTPSubmitter posts drafts as multipart forms to the ticket backend.
type HTTPSubmitter struct {
	cfg    HTTPConfig
	logger *zap.Logger
}

// NewHTTPSubmitter constructs the submitter.
func NewHTTPSubmitter(cfg HTTPConfig, logger *zap.Logger) *HTTPSubmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPSubmitter{cfg: cfg, logger: logger}
}

// Submit issues exactly one request. It never retries.
func (s *HTTPSubmitter) Submit(ctx context.Context, session domain.Session, payload Payload) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, &SubmissionError{Err: err}
	}
	if s.cfg.RequireAuth && session.Token == "" {
		return nil, &SubmissionError{Err: ErrMissingCredential}
	}

	files, err := payload.formFiles()
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}

	agent := fiber.Post(s.cfg.Endpoint)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if s.cfg.RequireAuth {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+session.Token)
	}
	if s.cfg.Timeout > 0 {
		agent.Timeout(s.cfg.Timeout)
	}

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	for _, kv := range payload.Fields() {
		args.Set(kv[0], kv[1])
	}
	// Files must be registered before MultipartForm writes the body.
	agent.FileData(files...)
	agent.MultipartForm(args)

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		s.logger.Warn("ticket api transport failure", zap.Errors("errors", errs))
		return nil, &SubmissionError{Err: errors.Join(errs...)}
	}

	var resp apiResponse
	decodeErr := json.Unmarshal(body, &resp)

	if status < 200 || status > 299 {
		msg := ""
		if decodeErr == nil {
			msg, _ = resp.errorMessage()
		}
		s.logger.Warn("ticket api rejected submission", zap.Int("status", status), zap.String("message", msg))
		return nil, &SubmissionError{StatusCode: status, Message: msg}
	}
	if decodeErr != nil {
		return nil, &SubmissionError{StatusCode: status, Err: decodeErr}
	}
	if msg, isErr := resp.errorMessage(); isErr {
		return nil, &SubmissionError{StatusCode: status, Message: msg}
	}

	id := resp.ticketID()
	if id == "" {
		return nil, &SubmissionError{StatusCode: status, Err: errors.New("response carries no ticket identifier")}
	}
	s.logger.Info("ticket created", zap.String("ticket_id", id), zap.Int("attachments", len(payload.Attachments)))
	return &Result{TicketID: id}, nil
}
