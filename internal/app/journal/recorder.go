package journal

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"chaserbot/internal/app/ports"
	"chaserbot/internal/domain/match"
)

const (
	DefaultQueueSize = 256
	flushTimeout     = 5 * time.Second
)

type Config struct {
	QueueSize int
	Logger    *zap.Logger
}

type entry struct {
	matchID string
	event   match.DomainEvent
	result  *match.Result
}

// Recorder journals match events on its own goroutine. Record and Finish
// never block: when the queue is full the entry is dropped and counted.
type Recorder struct {
	events  ports.EventRepository
	matches ports.MatchRepository
	tx      ports.TxManager
	log     *zap.Logger
	queue   chan entry
	dropped atomic.Uint64
	written atomic.Uint64
}

var _ ports.EventSink = (*Recorder)(nil)

func New(events ports.EventRepository, matches ports.MatchRepository, tx ports.TxManager, cfg Config) *Recorder {
	size := cfg.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{
		events:  events,
		matches: matches,
		tx:      tx,
		log:     log,
		queue:   make(chan entry, size),
	}
}

func (r *Recorder) Record(matchID string, event match.DomainEvent) {
	r.enqueue(entry{matchID: matchID, event: event})
}

func (r *Recorder) Finish(result match.Result) {
	r.enqueue(entry{matchID: result.MatchID, result: &result})
}

func (r *Recorder) enqueue(e entry) {
	select {
	case r.queue <- e:
	default:
		r.dropped.Add(1)
	}
}

func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

func (r *Recorder) Written() uint64 { return r.written.Load() }

// Run writes queued entries until ctx is done, then flushes what is left.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case e := <-r.queue:
			r.write(ctx, e)
		case <-ctx.Done():
			r.flush()
			return nil
		}
	}
}

func (r *Recorder) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	for {
		select {
		case e := <-r.queue:
			r.write(ctx, e)
		default:
			return
		}
	}
}

func (r *Recorder) write(ctx context.Context, e entry) {
	var err error
	switch {
	case e.result != nil:
		err = r.finish(ctx, *e.result)
	case e.event.Type == match.EventJoined:
		err = r.begin(ctx, e.matchID, e.event)
	default:
		err = r.events.Append(ctx, e.matchID, []match.DomainEvent{e.event})
	}
	if err != nil {
		r.log.Warn("journal write failed", zap.String("match_id", e.matchID), zap.Error(err))
		return
	}
	r.written.Add(1)
}

func (r *Recorder) begin(ctx context.Context, matchID string, joined match.DomainEvent) error {
	rec := ports.MatchRecord{
		MatchID:   matchID,
		Room:      stringField(joined.Payload, "room"),
		Us:        stringField(joined.Payload, "us"),
		Opponent:  stringField(joined.Payload, "opponent"),
		Side:      stringField(joined.Payload, "side"),
		StartedAt: joined.OccurredAt,
	}
	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := r.matches.Create(ctx, rec); err != nil {
			return fmt.Errorf("create match: %w", err)
		}
		return r.events.Append(ctx, matchID, []match.DomainEvent{joined})
	})
}

func (r *Recorder) finish(ctx context.Context, result match.Result) error {
	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := r.matches.Finish(ctx, result); err != nil {
			return fmt.Errorf("finish match: %w", err)
		}
		return r.events.Append(ctx, result.MatchID, []match.DomainEvent{result.Event()})
	})
}

func stringField(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}
