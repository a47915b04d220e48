package replay

import "chaserbot/internal/domain/match"

type Request struct {
	MatchID      string
	Limit        int
	OccurredFrom int64
	OccurredTo   int64
}

// Summary is the match as last seen in the journal.
type Summary struct {
	Phase         string `json:"phase"`
	TurnsLeft     int    `json:"turns_left"`
	ScoreUs       int    `json:"score_us"`
	ScoreOpponent int    `json:"score_opponent"`
	Commands      int    `json:"commands"`
	Won           *bool  `json:"won,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

type Response struct {
	MatchID string              `json:"match_id"`
	Events  []match.DomainEvent `json:"events"`
	Latest  Summary             `json:"latest"`
}
