package ticketapi

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/ticket-intake/internal/domain"
)

// SimulatedSubmitter stands in for the backend: it waits, then confirms a
// ticket id derived from the clock. Setting Fail makes every call fail.
type SimulatedSubmitter struct {
	Delay time.Duration
	Now   func() time.Time
	Fail  error
}

// NewSimulatedSubmitter returns a stub that succeeds after delay.
func NewSimulatedSubmitter(delay time.Duration) *SimulatedSubmitter {
	return &SimulatedSubmitter{Delay: delay, Now: time.Now}
}

// Submit waits for Delay and returns TK-<last six digits of the epoch millis>.
func (s *SimulatedSubmitter) Submit(ctx context.Context, _ domain.Session, _ Payload) (*Result, error) {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, &SubmissionError{Err: ctx.Err()}
		case <-timer.C:
		}
	}
	if s.Fail != nil {
		return nil, &SubmissionError{Err: s.Fail}
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return &Result{TicketID: SimulatedTicketID(now())}, nil
}

// SimulatedTicketID formats the locally synthesised identifier.
func SimulatedTicketID(t time.Time) string {
	return fmt.Sprintf("TK-%06d", t.UnixMilli()%1_000_000)
}
