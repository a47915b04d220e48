package match

import "time"

const (
	EventJoined  = "joined"
	EventBoard   = "board"
	EventProbe   = "probe"
	EventCommand = "command"
	EventResult  = "result"
)

type DomainEvent struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload"`
}

// Result is the final record of a finished match.
type Result struct {
	MatchID       string    `json:"match_id"`
	Room          string    `json:"room"`
	Us            string    `json:"us"`
	Opponent      string    `json:"opponent"`
	Won           bool      `json:"won"`
	Reason        string    `json:"reason"`
	ScoreUs       int       `json:"score_us"`
	ScoreOpponent int       `json:"score_opponent"`
	EndedAt       time.Time `json:"ended_at"`
}

func (r Result) Event() DomainEvent {
	return DomainEvent{
		Type:       EventResult,
		OccurredAt: r.EndedAt,
		Payload: map[string]any{
			"won":            r.Won,
			"reason":         r.Reason,
			"score_us":       r.ScoreUs,
			"score_opponent": r.ScoreOpponent,
		},
	}
}
