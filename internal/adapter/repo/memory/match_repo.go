package memory

import (
	"context"

	"chaserbot/internal/app/ports"
	"chaserbot/internal/domain/match"
)

type MatchRepo struct {
	store *Store
}

var _ ports.MatchRepository = MatchRepo{}

func NewMatchRepo(store *Store) MatchRepo {
	return MatchRepo{store: store}
}

func (r MatchRepo) Create(ctx context.Context, rec ports.MatchRecord) error {
	var err error
	r.store.locked(ctx, true, func() {
		if _, exists := r.store.matches[rec.MatchID]; exists {
			err = ports.ErrConflict
			return
		}
		r.store.matches[rec.MatchID] = rec
	})
	return err
}

func (r MatchRepo) Finish(ctx context.Context, result match.Result) error {
	var err error
	r.store.locked(ctx, true, func() {
		rec, ok := r.store.matches[result.MatchID]
		if !ok {
			err = ports.ErrNotFound
			return
		}
		endedAt := result.EndedAt
		rec.Won = result.Won
		rec.Reason = result.Reason
		rec.ScoreUs = result.ScoreUs
		rec.ScoreOpponent = result.ScoreOpponent
		rec.EndedAt = &endedAt
		r.store.matches[result.MatchID] = rec
	})
	return err
}

func (r MatchRepo) GetByMatchID(ctx context.Context, matchID string) (ports.MatchRecord, error) {
	var (
		rec ports.MatchRecord
		ok  bool
	)
	r.store.locked(ctx, false, func() {
		rec, ok = r.store.matches[matchID]
	})
	if !ok {
		return ports.MatchRecord{}, ports.ErrNotFound
	}
	return rec, nil
}
