// Package notify delivers requester notices to their destinations.
package notify

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-intake/internal/domain"
)

// Sink receives notices. Delivery is fire-and-forget; nothing acknowledges it.
type Sink interface {
	Deliver(ctx context.Context, notice domain.Notice) error
}

// Forgetter is implemented by sinks that keep notices per form.
type Forgetter interface {
	Forget(ctx context.Context, formID string) error
}

// Fanout delivers to every sink and joins their failures.
type Fanout []Sink

// Deliver implements Sink.
func (f Fanout) Deliver(ctx context.Context, notice domain.Notice) error {
	var errs []error
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.Deliver(ctx, notice); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Forget drops the stored notices of a form from every sink that keeps them.
func (f Fanout) Forget(ctx context.Context, formID string) error {
	var errs []error
	for _, s := range f {
		fg, ok := s.(Forgetter)
		if !ok {
			continue
		}
		if err := fg.Forget(ctx, formID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes notices to the structured log.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink constructs the sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Deliver implements Sink.
func (s *LogSink) Deliver(_ context.Context, n domain.Notice) error {
	fields := []zap.Field{
		zap.String("form_id", n.FormID),
		zap.String("level", string(n.Level)),
		zap.String("title", n.Title),
		zap.String("description", n.Description),
	}
	if n.Level == domain.NoticeError {
		s.logger.Warn("notice", fields...)
		return nil
	}
	s.logger.Info("notice", fields...)
	return nil
}

// MemorySink keeps the most recent notices of each form. Oldest entries are
// dropped once a form holds limit notices.
type MemorySink struct {
	mu     sync.Mutex
	limit  int
	byForm map[string][]domain.Notice
}

// NewMemorySink constructs the sink; a non-positive limit keeps 20 per form.
func NewMemorySink(limit int) *MemorySink {
	if limit <= 0 {
		limit = 20
	}
	return &MemorySink{limit: limit, byForm: make(map[string][]domain.Notice)}
}

// Deliver implements Sink.
func (s *MemorySink) Deliver(_ context.Context, n domain.Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.byForm[n.FormID], n)
	if len(list) > s.limit {
		list = append([]domain.Notice(nil), list[len(list)-s.limit:]...)
	}
	s.byForm[n.FormID] = list
	return nil
}

// Recent returns the buffered notices of a form, oldest first.
func (s *MemorySink) Recent(formID string) []domain.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Notice(nil), s.byForm[formID]...)
}

// Drain returns and clears the buffered notices of a form.
func (s *MemorySink) Drain(formID string) []domain.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.byForm[formID]
	delete(s.byForm, formID)
	return out
}

// Forget drops everything buffered for a form.
func (s *MemorySink) Forget(_ context.Context, formID string) error {
	s.mu.Lock()
	delete(s.byForm, formID)
	s.mu.Unlock()
	return nil
}
