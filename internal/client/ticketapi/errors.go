package ticketapi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SubmissionError reports a failed outbound call. Message holds the
// server-supplied text when the backend sent one.
type SubmissionError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *SubmissionError) Error() string {
	switch {
	case e.Message != "" && e.StatusCode != 0:
		return fmt.Sprintf("ticket api: status %d: %s", e.StatusCode, e.Message)
	case e.Message != "":
		return "ticket api: " + e.Message
	case e.Err != nil:
		return fmt.Sprintf("ticket api: %v", e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("ticket api: status %d", e.StatusCode)
	}
	return "ticket api: submission failed"
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// ServerMessage returns the backend's message, or "" when there is none.
func (e *SubmissionError) ServerMessage() string {
	return strings.TrimSpace(e.Message)
}

// apiResponse covers the envelopes the ticket backends are known to return.
type apiResponse struct {
	ID       string `json:"id"`
	TicketID string `json:"ticketId"`
	Data     *struct {
		ID          string `json:"id"`
		ExternalKey string `json:"external_key"`
	} `json:"data"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

func (r apiResponse) ticketID() string {
	if r.Data != nil {
		if r.Data.ExternalKey != "" {
			return r.Data.ExternalKey
		}
		if r.Data.ID != "" {
			return r.Data.ID
		}
	}
	if r.ID != "" {
		return r.ID
	}
	return r.TicketID
}

// errorMessage extracts the error text from either {"error":"..."} or
// {"error":{"message":"..."}}, falling back to a top-level message.
func (r apiResponse) errorMessage() (string, bool) {
	if len(r.Error) > 0 && string(r.Error) != "null" {
		var text string
		if err := json.Unmarshal(r.Error, &text); err == nil {
			return text, true
		}
		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(r.Error, &obj); err == nil {
			return obj.Message, true
		}
		return "", true
	}
	return r.Message, false
}
