package journal

import (
	"context"
	"testing"
	"time"

	"chaserbot/internal/adapter/repo/memory"
	"chaserbot/internal/domain/match"
)

func newMemoryRecorder(size int) (*Recorder, memory.EventRepo, memory.MatchRepo) {
	store := memory.NewStore()
	events := memory.NewEventRepo(store)
	matches := memory.NewMatchRepo(store)
	return New(events, matches, memory.NewTxManager(store), Config{QueueSize: size}), events, matches
}

func TestRecorderWritesMatchLifecycle(t *testing.T) {
	r, events, matches := newMemoryRecorder(16)
	at := time.Unix(1700000000, 0)
	r.Record("m1", match.DomainEvent{Type: match.EventJoined, OccurredAt: at, Payload: map[string]any{"room": "r1", "us": "bot", "opponent": "alice", "side": "hot"}})
	r.Record("m1", match.DomainEvent{Type: match.EventBoard, OccurredAt: at.Add(time.Second)})
	r.Finish(match.Result{MatchID: "m1", Won: true, Reason: "put", ScoreUs: 2, EndedAt: at.Add(time.Minute)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for r.Written() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}

	rec, err := matches.GetByMatchID(context.Background(), "m1")
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	if rec.Room != "r1" || rec.Us != "bot" || rec.Side != "hot" || !rec.Won || rec.EndedAt == nil {
		t.Fatalf("unexpected match record: %+v", rec)
	}
	got, err := events.ListByMatchID(context.Background(), "m1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].Type != match.EventResult || got[2].Type != match.EventJoined {
		t.Fatalf("unexpected events: %+v", got)
	}
}

func TestRecorderDropsWhenQueueIsFull(t *testing.T) {
	r, _, _ := newMemoryRecorder(1)
	for i := 0; i < 3; i++ {
		r.Record("m1", match.DomainEvent{Type: match.EventBoard})
	}
	if r.Dropped() != 2 {
		t.Fatalf("expected 2 dropped, got %d", r.Dropped())
	}
}

func TestRecorderFlushesOnShutdown(t *testing.T) {
	r, events, _ := newMemoryRecorder(8)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Record("m1", match.DomainEvent{Type: match.EventBoard})
	r.Record("m1", match.DomainEvent{Type: match.EventProbe})
	if err := r.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	got, err := events.ListByMatchID(context.Background(), "m1", 0)
	if err != nil || len(got) != 2 {
		t.Fatalf("expected both events flushed, got %v err=%v", got, err)
	}
}
