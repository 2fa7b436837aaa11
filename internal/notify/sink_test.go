package notify

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/ticket-intake/internal/domain"
)

func TestMemorySinkKeepsMostRecent(t *testing.T) {
	sink := NewMemorySink(2)
	for _, title := range []string{"one", "two", "three"} {
		if err := sink.Deliver(context.Background(), domain.Notice{FormID: "f1", Title: title}); err != nil {
			t.Fatal(err)
		}
	}
	_ = sink.Deliver(context.Background(), domain.Notice{FormID: "f2", Title: "other"})

	got := sink.Recent("f1")
	if len(got) != 2 || got[0].Title != "two" || got[1].Title != "three" {
		t.Fatalf("recent = %+v", got)
	}
	if drained := sink.Drain("f1"); len(drained) != 2 {
		t.Fatalf("drained = %d", len(drained))
	}
	if len(sink.Recent("f1")) != 0 {
		t.Fatal("drain should clear the form")
	}
	if err := sink.Forget(context.Background(), "f2"); err != nil {
		t.Fatal(err)
	}
	if len(sink.Recent("f2")) != 0 {
		t.Fatal("forget should clear the form")
	}
}

func TestLogSinkLevels(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewLogSink(zap.New(core))

	_ = sink.Deliver(context.Background(), domain.Notice{FormID: "f", Level: domain.NoticeSuccess, Title: "Ticket created"})
	_ = sink.Deliver(context.Background(), domain.Notice{FormID: "f", Level: domain.NoticeError, Title: "Ticket creation failed"})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("entries = %d", len(entries))
	}
	if entries[0].Level != zap.InfoLevel || entries[1].Level != zap.WarnLevel {
		t.Errorf("levels = %v, %v", entries[0].Level, entries[1].Level)
	}
}

type failingSink struct{ err error }

func (f failingSink) Deliver(context.Context, domain.Notice) error { return f.err }

func TestFanoutDeliversToAll(t *testing.T) {
	mem := NewMemorySink(5)
	boom := errors.New("down")
	fan := Fanout{failingSink{boom}, nil, mem}

	err := fan.Deliver(context.Background(), domain.Notice{FormID: "f", Title: "x"})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if len(mem.Recent("f")) != 1 {
		t.Fatal("memory sink should still receive the notice")
	}
}

type recordingForgetter struct {
	failingSink
	forgotten []string
}

func (r *recordingForgetter) Forget(_ context.Context, formID string) error {
	r.forgotten = append(r.forgotten, formID)
	return r.err
}

var _ Forgetter = (*RedisSink)(nil)

func TestFanoutForgetsEverySink(t *testing.T) {
	mem := NewMemorySink(5)
	_ = mem.Deliver(context.Background(), domain.Notice{FormID: "f", Title: "x"})
	boom := errors.New("redis down")
	remote := &recordingForgetter{failingSink: failingSink{boom}}
	fan := Fanout{NewLogSink(nil), mem, nil, remote}

	err := fan.Forget(context.Background(), "f")
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if len(mem.Recent("f")) != 0 {
		t.Error("memory sink still holds the form")
	}
	if len(remote.forgotten) != 1 || remote.forgotten[0] != "f" {
		t.Errorf("forgotten = %v", remote.forgotten)
	}
}

func TestRedisSinkRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx := context.Background()
	sink := NewRedisSink(client, "test-notices", 2)
	formID := uuid.NewString()
	defer sink.Forget(ctx, formID)

	sub := client.Subscribe(ctx, sink.Channel(formID))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	for _, title := range []string{"a", "b", "c"} {
		if err := sink.Deliver(ctx, domain.Notice{FormID: formID, Title: title}); err != nil {
			t.Fatalf("Deliver() error = %v", err)
		}
	}

	select {
	case msg := <-sub.Channel():
		if msg.Channel != sink.Channel(formID) {
			t.Errorf("channel = %q", msg.Channel)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message published")
	}

	recent, err := sink.Recent(ctx, formID)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].Title != "c" || recent[1].Title != "b" {
		t.Fatalf("recent = %+v", recent)
	}

	if err := sink.Forget(ctx, formID); err != nil {
		t.Fatal(err)
	}
	if recent, _ = sink.Recent(ctx, formID); len(recent) != 0 {
		t.Fatalf("recent after forget = %+v", recent)
	}
}
