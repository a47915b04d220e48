package replay

import (
	"context"
	"errors"
	"strings"

	"chaserbot/internal/app/ports"
	"chaserbot/internal/domain/match"
)

var ErrInvalidRequest = errors.New("invalid replay request")

const MaxLimit = 500

type UseCase struct {
	Events ports.EventRepository
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.MatchID) == "" || req.Limit < 0 {
		return Response{}, ErrInvalidRequest
	}
	limit := req.Limit
	if limit == 0 || limit > MaxLimit {
		limit = MaxLimit
	}
	events, err := u.Events.ListByMatchID(ctx, req.MatchID, limit)
	if err != nil {
		return Response{}, err
	}
	events = filterByTimeWindow(events, req.OccurredFrom, req.OccurredTo)
	return Response{MatchID: req.MatchID, Events: events, Latest: reconstruct(events)}, nil
}

func filterByTimeWindow(events []match.DomainEvent, from, to int64) []match.DomainEvent {
	if from <= 0 && to <= 0 {
		return events
	}
	out := make([]match.DomainEvent, 0, len(events))
	for _, evt := range events {
		ts := evt.OccurredAt.Unix()
		if from > 0 && ts < from {
			continue
		}
		if to > 0 && ts > to {
			continue
		}
		out = append(out, evt)
	}
	return out
}

// reconstruct folds events oldest first. Repositories list newest first.
func reconstruct(events []match.DomainEvent) Summary {
	sum := Summary{Phase: string(match.PhaseStarting), TurnsLeft: -1}
	for i := len(events) - 1; i >= 0; i-- {
		evt := events[i]
		switch evt.Type {
		case match.EventBoard:
			if phase, ok := evt.Payload["phase"].(string); ok && phase != "" {
				sum.Phase = phase
			}
			if v, ok := num(evt.Payload["turns_left"]); ok {
				sum.TurnsLeft = int(v)
			}
			sum.ScoreUs = intOr(evt.Payload["score_us"], sum.ScoreUs)
			sum.ScoreOpponent = intOr(evt.Payload["score_opponent"], sum.ScoreOpponent)
		case match.EventCommand:
			sum.Commands++
		case match.EventResult:
			sum.Phase = string(match.PhaseEnded)
			if won, ok := evt.Payload["won"].(bool); ok {
				sum.Won = &won
			}
			sum.Reason, _ = evt.Payload["reason"].(string)
			sum.ScoreUs = intOr(evt.Payload["score_us"], sum.ScoreUs)
			sum.ScoreOpponent = intOr(evt.Payload["score_opponent"], sum.ScoreOpponent)
		}
	}
	return sum
}

func intOr(v any, fallback int) int {
	if n, ok := num(v); ok {
		return int(n)
	}
	return fallback
}

// num accepts both in-memory payloads and ones that went through JSON.
func num(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
