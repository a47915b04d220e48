package ports

import (
	"context"
	"time"

	"chaserbot/internal/domain/match"
)

type MatchRecord struct {
	MatchID       string
	Room          string
	Us            string
	Opponent      string
	Side          string
	Won           bool
	Reason        string
	ScoreUs       int
	ScoreOpponent int
	StartedAt     time.Time
	EndedAt       *time.Time
}

type MatchRepository interface {
	Create(ctx context.Context, rec MatchRecord) error
	Finish(ctx context.Context, result match.Result) error
	GetByMatchID(ctx context.Context, matchID string) (MatchRecord, error)
}

type EventRepository interface {
	Append(ctx context.Context, matchID string, events []match.DomainEvent) error
	ListByMatchID(ctx context.Context, matchID string, limit int) ([]match.DomainEvent, error)
}
