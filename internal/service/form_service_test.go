package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/ticket-intake/internal/domain"
	"github.com/spec-kit/ticket-intake/internal/events"
	"github.com/spec-kit/ticket-intake/internal/notify"
)

type memoryReceipts struct {
	mu      sync.Mutex
	records []domain.ReceiptRecord
	err     error
}

func (m *memoryReceipts) Create(_ context.Context, r *domain.ReceiptRecord) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = "rec-1"
	m.records = append(m.records, *r)
	return nil
}

func (m *memoryReceipts) ListByEmail(_ context.Context, email string, _, _ int) ([]domain.ReceiptRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ReceiptRecord
	for _, r := range m.records {
		if r.Email == email {
			out = append(out, r)
		}
	}
	return out, nil
}

var (
	alice = domain.Session{Token: "t1", Email: "alice@example.com", DisplayName: "Alice"}
	bob   = domain.Session{Token: "t2", Email: "bob@example.com"}
)

func TestFormServiceOwnership(t *testing.T) {
	svc := NewFormService(FormDependencies{Submitter: &fakeSubmitter{id: "x"}})

	if _, err := svc.Open(domain.Session{Email: "no-token@example.com"}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("Open() without token = %v", err)
	}

	wf, err := svc.Open(alice)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(alice, wf.ID()); err != nil {
		t.Errorf("owner Get() = %v", err)
	}
	upper := alice
	upper.Email = "ALICE@example.com"
	if _, err := svc.Get(upper, wf.ID()); err != nil {
		t.Errorf("case-insensitive Get() = %v", err)
	}
	if _, err := svc.Get(bob, wf.ID()); !errors.Is(err, ErrFormNotFound) {
		t.Errorf("foreign Get() = %v", err)
	}
	if err := svc.Discard(context.Background(), bob, wf.ID()); !errors.Is(err, ErrFormNotFound) {
		t.Errorf("foreign Discard() = %v", err)
	}
	if _, err := svc.Get(alice, "missing"); !errors.Is(err, ErrFormNotFound) {
		t.Errorf("missing Get() = %v", err)
	}
}

func TestFormServiceDiscardForgetsNotices(t *testing.T) {
	sink := notify.NewMemorySink(10)
	svc := NewFormService(FormDependencies{Notices: sink})
	wf, _ := svc.Open(alice)
	_ = sink.Deliver(context.Background(), domain.Notice{FormID: wf.ID(), Title: "x"})

	if err := svc.Discard(context.Background(), alice, wf.ID()); err != nil {
		t.Fatal(err)
	}
	if svc.Len() != 0 {
		t.Errorf("forms = %d", svc.Len())
	}
	if len(sink.Recent(wf.ID())) != 0 {
		t.Error("notices should be forgotten")
	}
	if _, err := svc.Get(alice, wf.ID()); !errors.Is(err, ErrFormNotFound) {
		t.Errorf("Get() after discard = %v", err)
	}
}

func TestFormServiceRecordsReceipts(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	receipts := &memoryReceipts{}
	svc := NewFormService(FormDependencies{
		Submitter:  &fakeSubmitter{id: "TCK-9"},
		Dispatcher: dispatcher,
		Receipts:   receipts,
	})
	svc.RegisterHandlers()

	wf, _ := svc.Open(alice)
	fillValid(t, wf)
	if _, err := wf.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}

	list, err := svc.Receipts(context.Background(), alice, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("receipts = %+v", list)
	}
	got := list[0]
	if got.TicketID != "TCK-9" || got.Title != "Login fails" || got.Priority != domain.TicketPriorityUrgent {
		t.Errorf("receipt = %+v", got)
	}
}

func TestFormServiceReceiptFailureDoesNotFailSubmission(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewFormService(FormDependencies{
		Submitter:  &fakeSubmitter{id: "TCK-10"},
		Dispatcher: dispatcher,
		Receipts:   &memoryReceipts{err: errors.New("db down")},
	})
	svc.RegisterHandlers()

	wf, _ := svc.Open(alice)
	fillValid(t, wf)
	if _, err := wf.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() = %v", err)
	}
	if got := wf.Snapshot().Status; got != domain.SubmissionSuccess {
		t.Errorf("status = %s", got)
	}
}

func TestFormServiceReceiptsWithoutLog(t *testing.T) {
	svc := NewFormService(FormDependencies{})
	list, err := svc.Receipts(context.Background(), alice, 0, 0)
	if err != nil || list == nil || len(list) != 0 {
		t.Fatalf("Receipts() = %v, %v", list, err)
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestFormServiceExpiresIdleForms(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	sink := notify.NewMemorySink(10)
	svc := NewFormService(FormDependencies{
		Submitter: &fakeSubmitter{id: "x"},
		Notices:   sink,
		IdleTTL:   30 * time.Minute,
		Clock:     clock.Now,
	})

	active, _ := svc.Open(alice)
	idle, _ := svc.Open(alice)
	_ = sink.Deliver(context.Background(), domain.Notice{FormID: idle.ID(), Title: "x"})

	clock.Advance(20 * time.Minute)
	if _, err := svc.Get(alice, active.ID()); err != nil {
		t.Fatalf("Get() within TTL = %v", err)
	}
	clock.Advance(20 * time.Minute)

	if _, err := svc.Get(alice, idle.ID()); !errors.Is(err, ErrFormNotFound) {
		t.Fatalf("Get() after TTL = %v, want ErrFormNotFound", err)
	}
	if len(sink.Recent(idle.ID())) != 0 {
		t.Error("notices of an expired form should be forgotten")
	}
	if _, err := svc.Get(alice, active.ID()); err != nil {
		t.Errorf("recently used form expired: %v", err)
	}
}

func TestFormServiceSweep(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	svc := NewFormService(FormDependencies{IdleTTL: time.Minute, Clock: clock.Now})
	for i := 0; i < 100; i++ {
		if _, err := svc.Open(alice); err != nil {
			t.Fatal(err)
		}
	}
	if n := svc.Sweep(context.Background()); n != 0 {
		t.Fatalf("Sweep() before TTL = %d", n)
	}

	clock.Advance(2 * time.Minute)
	fresh, _ := svc.Open(bob)
	if n := svc.Sweep(context.Background()); n != 100 {
		t.Fatalf("Sweep() = %d, want 100", n)
	}
	if svc.Len() != 1 {
		t.Fatalf("forms = %d, want 1", svc.Len())
	}
	if _, err := svc.Get(bob, fresh.ID()); err != nil {
		t.Errorf("fresh form swept: %v", err)
	}
}

func TestFormServiceSweepKeepsRunningSubmission(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	sub := &fakeSubmitter{id: "TCK-1", started: make(chan struct{}), release: make(chan struct{})}
	svc := NewFormService(FormDependencies{Submitter: sub, IdleTTL: time.Minute, Clock: clock.Now})
	wf, _ := svc.Open(alice)
	fillValid(t, wf)

	done := make(chan error, 1)
	go func() {
		_, err := wf.Submit(context.Background())
		done <- err
	}()
	<-sub.started

	clock.Advance(time.Hour)
	if n := svc.Sweep(context.Background()); n != 0 {
		t.Fatalf("Sweep() evicted %d forms while submitting", n)
	}
	close(sub.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(alice, wf.ID()); err != nil {
		t.Errorf("Get() after completed submission = %v", err)
	}
}

func TestFormServiceSweepDisabledWithoutTTL(t *testing.T) {
	svc := NewFormService(FormDependencies{})
	_, _ = svc.Open(alice)
	if n := svc.Sweep(context.Background()); n != 0 || svc.Len() != 1 {
		t.Fatalf("Sweep() = %d, forms = %d", n, svc.Len())
	}
}

func TestFormServiceCapsFormsPerSession(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	svc := NewFormService(FormDependencies{MaxPerSession: 2, IdleTTL: time.Minute, Clock: clock.Now})
	for i := 0; i < 2; i++ {
		if _, err := svc.Open(alice); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.Open(alice); !errors.Is(err, ErrTooManyForms) {
		t.Fatalf("Open() over cap = %v, want ErrTooManyForms", err)
	}
	if _, err := svc.Open(bob); err != nil {
		t.Errorf("cap should be per session: %v", err)
	}

	clock.Advance(2 * time.Minute)
	if _, err := svc.Open(alice); err != nil {
		t.Errorf("expired forms should not count toward the cap: %v", err)
	}
}
