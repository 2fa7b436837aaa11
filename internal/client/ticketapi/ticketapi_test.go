package ticketapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spec-kit/ticket-intake/internal/domain"
)

func validDraft(t *testing.T) domain.TicketDraft {
	t.Helper()
	path := filepath.Join(t.TempDir(), "screenshot.png")
	if err := os.WriteFile(path, []byte("png-bytes"), 0o600); err != nil {
		t.Fatal(err)
	}
	att, err := domain.NewFileAttachment(path)
	if err != nil {
		t.Fatal(err)
	}
	return domain.TicketDraft{
		Title:       "Login fails",
		Description: "Cannot log in",
		Category:    domain.CategoryTechnical,
		Priority:    domain.TicketPriorityUrgent,
		Type:        domain.TicketTypeIncident,
		UserEmail:   "a@b.com",
		Attachments: []domain.Attachment{att},
	}
}

func TestNewPayloadIndexesAttachments(t *testing.T) {
	d := validDraft(t)
	d.Attachments = append(d.Attachments, d.Attachments[0])
	p := NewPayload(d)
	if len(p.Attachments) != 2 {
		t.Fatalf("attachments = %d", len(p.Attachments))
	}
	if p.Attachments[0].Field != "attachments[0]" || p.Attachments[1].Field != "attachments[1]" {
		t.Errorf("fields = %q, %q", p.Attachments[0].Field, p.Attachments[1].Field)
	}
	fields := p.Fields()
	if fields[5][0] != FieldUserEmail || fields[5][1] != "a@b.com" {
		t.Errorf("userEmail field = %v", fields[5])
	}
}

func TestHTTPSubmitterSendsMultipartForm(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		for field, want := range map[string]string{
			"title":       "Login fails",
			"description": "Cannot log in",
			"category":    "technical",
			"priority":    "urgent",
			"type":        "incident",
			"userEmail":   "a@b.com",
		} {
			if got := r.FormValue(field); got != want {
				t.Errorf("%s = %q, want %q", field, got, want)
			}
		}
		file, header, err := r.FormFile("attachments[0]")
		if err != nil {
			t.Errorf("attachment: %v", err)
		} else {
			content, _ := io.ReadAll(file)
			if header.Filename != "screenshot.png" || string(content) != "png-bytes" {
				t.Errorf("attachment = %q %q", header.Filename, content)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"id":"9f1c","external_key":"TCK-1A2B3C4D"}}`)
	}))
	defer srv.Close()

	s := NewHTTPSubmitter(HTTPConfig{Endpoint: srv.URL, RequireAuth: true}, nil)
	res, err := s.Submit(context.Background(), domain.Session{Token: "tok-123", Email: "a@b.com"}, NewPayload(validDraft(t)))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.TicketID != "TCK-1A2B3C4D" {
		t.Errorf("ticket id = %q", res.TicketID)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("calls = %d", calls)
	}
}

func TestHTTPSubmitterWithoutAuthOmitsHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("authorization = %q, want none", got)
		}
		_, _ = io.WriteString(w, `{"ticketId":"T-77"}`)
	}))
	defer srv.Close()

	s := NewHTTPSubmitter(HTTPConfig{Endpoint: srv.URL}, nil)
	res, err := s.Submit(context.Background(), domain.Session{}, NewPayload(domain.TicketDraft{Title: "x"}))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.TicketID != "T-77" {
		t.Errorf("ticket id = %q", res.TicketID)
	}
}

func TestHTTPSubmitterFailures(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{"error envelope", http.StatusBadRequest, `{"error":{"code":"VALIDATION_FAILED","message":"title too long"}}`, "title too long"},
		{"error string", http.StatusUnprocessableEntity, `{"error":"email not registered"}`, "email not registered"},
		{"message only", http.StatusForbidden, `{"message":"account suspended"}`, "account suspended"},
		{"html error page", http.StatusBadGateway, `<html>bad gateway</html>`, ""},
		{"error in success body", http.StatusOK, `{"error":"quota exceeded"}`, "quota exceeded"},
		{"success without id", http.StatusOK, `{"data":{}}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			s := NewHTTPSubmitter(HTTPConfig{Endpoint: srv.URL}, nil)
			_, err := s.Submit(context.Background(), domain.Session{}, NewPayload(domain.TicketDraft{}))
			var subErr *SubmissionError
			if !errors.As(err, &subErr) {
				t.Fatalf("error = %v, want *SubmissionError", err)
			}
			if subErr.ServerMessage() != tt.wantMessage {
				t.Errorf("message = %q, want %q", subErr.ServerMessage(), tt.wantMessage)
			}
			if subErr.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", subErr.StatusCode, tt.status)
			}
		})
	}
}

func TestHTTPSubmitterTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	s := NewHTTPSubmitter(HTTPConfig{Endpoint: url, Timeout: time.Second}, nil)
	_, err := s.Submit(context.Background(), domain.Session{}, NewPayload(domain.TicketDraft{}))
	var subErr *SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("error = %v, want *SubmissionError", err)
	}
	if subErr.ServerMessage() != "" || subErr.Err == nil {
		t.Errorf("unexpected error shape: %+v", subErr)
	}
}

func TestHTTPSubmitterMissingCredential(t *testing.T) {
	s := NewHTTPSubmitter(HTTPConfig{Endpoint: "http://127.0.0.1:1", RequireAuth: true}, nil)
	_, err := s.Submit(context.Background(), domain.Session{Email: "a@b.com"}, NewPayload(domain.TicketDraft{}))
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("error = %v, want ErrMissingCredential", err)
	}
}

func TestSimulatedSubmitter(t *testing.T) {
	fixed := time.UnixMilli(1718000123456)
	s := &SimulatedSubmitter{Now: func() time.Time { return fixed }}
	res, err := s.Submit(context.Background(), domain.Session{}, Payload{})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.TicketID != "TK-123456" {
		t.Errorf("ticket id = %q", res.TicketID)
	}

	if got := SimulatedTicketID(time.UnixMilli(1000000000042)); got != "TK-000042" {
		t.Errorf("padded id = %q", got)
	}
}

func TestSimulatedSubmitterFailureAndCancel(t *testing.T) {
	boom := errors.New("network down")
	s := &SimulatedSubmitter{Fail: boom}
	if _, err := s.Submit(context.Background(), domain.Session{}, Payload{}); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := &SimulatedSubmitter{Delay: time.Minute}
	if _, err := slow.Submit(ctx, domain.Session{}, Payload{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}
