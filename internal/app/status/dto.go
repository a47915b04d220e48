package status

import "time"

type PlayerView struct {
	Name      string `json:"name"`
	Side      string `json:"side"`
	Score     int    `json:"score"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Known     bool   `json:"known"`
	Predicted bool   `json:"predicted"`
}

type EffectView struct {
	Kind      string `json:"t"`
	Player    string `json:"p"`
	Direction string `json:"d,omitempty"`
}

type Response struct {
	MatchID   string      `json:"match_id"`
	Room      string      `json:"room"`
	Phase     string      `json:"phase"`
	Acting    string      `json:"acting,omitempty"`
	Winner    string      `json:"winner,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	TurnsLeft int         `json:"turns_left"`
	Ready     bool        `json:"ready"`
	Partial   bool        `json:"partial"`
	Width     int         `json:"width"`
	Height    int         `json:"height"`
	Us        PlayerView  `json:"us"`
	Opponent  PlayerView  `json:"opponent"`
	Effect    *EffectView `json:"effect,omitempty"`
	Map       [][]int     `json:"map"`
	UpdatedAt time.Time   `json:"updated_at"`
}
