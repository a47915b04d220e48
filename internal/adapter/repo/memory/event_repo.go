package memory

import (
	"context"

	"chaserbot/internal/app/ports"
	"chaserbot/internal/domain/match"
)

type EventRepo struct {
	store *Store
}

var _ ports.EventRepository = EventRepo{}

func NewEventRepo(store *Store) EventRepo {
	return EventRepo{store: store}
}

func (r EventRepo) Append(ctx context.Context, matchID string, events []match.DomainEvent) error {
	r.store.locked(ctx, true, func() {
		r.store.events[matchID] = append(r.store.events[matchID], events...)
	})
	return nil
}

// ListByMatchID returns the newest events first.
func (r EventRepo) ListByMatchID(ctx context.Context, matchID string, limit int) ([]match.DomainEvent, error) {
	var out []match.DomainEvent
	r.store.locked(ctx, false, func() {
		events := r.store.events[matchID]
		n := len(events)
		if limit > 0 && limit < n {
			n = limit
		}
		out = make([]match.DomainEvent, 0, n)
		for i := len(events) - 1; i >= 0 && len(out) < n; i-- {
			out = append(out, events[i])
		}
	})
	if len(out) == 0 {
		return nil, ports.ErrNotFound
	}
	return out, nil
}
