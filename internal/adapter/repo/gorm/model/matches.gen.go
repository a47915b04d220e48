package model

import "time"

const TableNameMatch = "matches"

// Match mapped from table <matches>
type Match struct {
	MatchID       string     `gorm:"column:match_id;primaryKey" json:"match_id"`
	Room          string     `gorm:"column:room;not null" json:"room"`
	Us            string     `gorm:"column:us;not null" json:"us"`
	Opponent      string     `gorm:"column:opponent;not null" json:"opponent"`
	Side          string     `gorm:"column:side;not null" json:"side"`
	Won           bool       `gorm:"column:won;not null" json:"won"`
	Reason        string     `gorm:"column:reason;not null" json:"reason"`
	ScoreUs       int32      `gorm:"column:score_us;not null" json:"score_us"`
	ScoreOpponent int32      `gorm:"column:score_opponent;not null" json:"score_opponent"`
	StartedAt     time.Time  `gorm:"column:started_at;not null;default:now()" json:"started_at"`
	EndedAt       *time.Time `gorm:"column:ended_at" json:"ended_at"`
}

// TableName Match's table name
func (*Match) TableName() string {
	return TableNameMatch
}
