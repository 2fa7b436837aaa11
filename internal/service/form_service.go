package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-intake/internal/domain"
	"github.com/spec-kit/ticket-intake/internal/events"
	"github.com/spec-kit/ticket-intake/internal/repository"
)

var (
	ErrFormNotFound    = errors.New("form not found")
	ErrUnauthenticated = errors.New("session is not authenticated")
	ErrTooManyForms    = errors.New("too many open forms for this session")
)

// NoticeForgetter drops stored notices of a discarded form.
type NoticeForgetter interface {
	Forget(ctx context.Context, formID string) error
}

// FormDependencies bundles what the form service shares across workflows.
type FormDependencies struct {
	Submitter  Submitter
	Dispatcher events.Dispatcher
	// Receipts is optional; without it receipts are not persisted.
	Receipts repository.ReceiptRepository
	Notices  NoticeForgetter
	// IdleTTL evicts forms unused for longer than this; zero keeps them
	// until discarded.
	IdleTTL time.Duration
	// MaxPerSession caps the live forms of one requester; zero is unbounded.
	MaxPerSession int
	Clock         func() time.Time
	Logger        *zap.Logger
}

// FormService keeps the live form sessions of every requester.
type FormService struct {
	mu         sync.RWMutex
	forms      map[string]*TicketWorkflow
	submitter  Submitter
	dispatcher events.Dispatcher
	receipts   repository.ReceiptRepository
	notices    NoticeForgetter
	idleTTL    time.Duration
	maxPer     int
	clock      func() time.Time
	logger     *zap.Logger
}

// NewFormService constructs the service.
func NewFormService(deps FormDependencies) *FormService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormService{
		forms:      make(map[string]*TicketWorkflow),
		submitter:  deps.Submitter,
		dispatcher: deps.Dispatcher,
		receipts:   deps.Receipts,
		notices:    deps.Notices,
		idleTTL:    deps.IdleTTL,
		maxPer:     deps.MaxPerSession,
		clock:      clock,
		logger:     logger,
	}
}

// RegisterHandlers subscribes the receipt log to successful submissions.
func (s *FormService) RegisterHandlers() {
	if s.dispatcher == nil || s.receipts == nil {
		return
	}
	s.dispatcher.Subscribe(events.EventSubmissionSucceeded, s.recordReceipt)
}

// Open starts a new, empty form for an authenticated session.
func (s *FormService) Open(session domain.Session) (*TicketWorkflow, error) {
	if !session.Authenticated() {
		return nil, ErrUnauthenticated
	}
	wf := NewTicketWorkflow(WorkflowDependencies{
		FormID:     uuid.NewString(),
		Session:    session,
		Submitter:  s.submitter,
		Dispatcher: s.dispatcher,
		Clock:      s.clock,
		Logger:     s.logger,
	})
	now := s.clock()
	s.mu.Lock()
	if s.maxPer > 0 && s.liveFormsLocked(session, now) >= s.maxPer {
		s.mu.Unlock()
		return nil, ErrTooManyForms
	}
	s.forms[wf.ID()] = wf
	s.mu.Unlock()
	s.logger.Debug("form opened", zap.String("form_id", wf.ID()))
	return wf, nil
}

// Get returns a form owned by the session and marks it as used. Forms of
// other requesters and forms idle past the TTL are reported as missing.
func (s *FormService) Get(session domain.Session, id string) (*TicketWorkflow, error) {
	wf, err := s.owned(session, id)
	if err != nil {
		return nil, err
	}
	if s.expired(wf, s.clock()) {
		s.evict(context.Background(), id)
		return nil, ErrFormNotFound
	}
	wf.Touch()
	return wf, nil
}

// Discard destroys a form and its draft.
func (s *FormService) Discard(ctx context.Context, session domain.Session, id string) error {
	if _, err := s.owned(session, id); err != nil {
		return err
	}
	s.evict(ctx, id)
	return nil
}

// Sweep evicts every form idle past the TTL and returns how many it removed.
func (s *FormService) Sweep(ctx context.Context) int {
	if s.idleTTL <= 0 {
		return 0
	}
	now := s.clock()
	var idle []string
	s.mu.Lock()
	for id, wf := range s.forms {
		if s.expired(wf, now) {
			idle = append(idle, id)
			delete(s.forms, id)
		}
	}
	s.mu.Unlock()
	s.forget(ctx, idle)
	if len(idle) > 0 {
		s.logger.Info("evicted idle forms", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Receipts lists the persisted receipts of the session's requester.
func (s *FormService) Receipts(ctx context.Context, session domain.Session, limit, offset int) ([]domain.ReceiptRecord, error) {
	if s.receipts == nil {
		return []domain.ReceiptRecord{}, nil
	}
	return s.receipts.ListByEmail(ctx, session.Email, limit, offset)
}

// Len reports the number of live forms.
func (s *FormService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.forms)
}

func (s *FormService) recordReceipt(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SubmissionSucceededPayload)
	if !ok {
		return nil
	}
	rec := &domain.ReceiptRecord{
		TicketID:    payload.Receipt.ID,
		Email:       event.Actor.Email,
		Title:       payload.Title,
		Priority:    payload.Priority,
		SubmittedAt: payload.Receipt.SubmittedAt,
	}
	if err := s.receipts.Create(ctx, rec); err != nil {
		s.logger.Error("failed to record receipt", zap.String("ticket_id", rec.TicketID), zap.Error(err))
		return err
	}
	return nil
}

func (s *FormService) owned(session domain.Session, id string) (*TicketWorkflow, error) {
	s.mu.RLock()
	wf, ok := s.forms[id]
	s.mu.RUnlock()
	if !ok || !sameRequester(wf.Session(), session) {
		return nil, ErrFormNotFound
	}
	return wf, nil
}

func (s *FormService) expired(wf *TicketWorkflow, now time.Time) bool {
	return s.idleTTL > 0 && wf.idleFor(now) > s.idleTTL
}

func (s *FormService) liveFormsLocked(session domain.Session, now time.Time) int {
	n := 0
	for _, wf := range s.forms {
		if sameRequester(wf.Session(), session) && !s.expired(wf, now) {
			n++
		}
	}
	return n
}

func (s *FormService) evict(ctx context.Context, id string) {
	s.mu.Lock()
	delete(s.forms, id)
	s.mu.Unlock()
	s.forget(ctx, []string{id})
}

func (s *FormService) forget(ctx context.Context, ids []string) {
	if s.notices == nil {
		return
	}
	for _, id := range ids {
		if err := s.notices.Forget(ctx, id); err != nil {
			s.logger.Warn("failed to forget notices", zap.String("form_id", id), zap.Error(err))
		}
	}
}

func sameRequester(a, b domain.Session) bool {
	return strings.EqualFold(strings.TrimSpace(a.Email), strings.TrimSpace(b.Email))
}
