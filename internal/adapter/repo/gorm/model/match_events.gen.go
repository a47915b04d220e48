package model

import "time"

const TableNameMatchEvent = "match_events"

// MatchEvent mapped from table <match_events>
type MatchEvent struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement:true" json:"id"`
	MatchID    string    `gorm:"column:match_id;not null" json:"match_id"`
	Type       string    `gorm:"column:type;not null" json:"type"`
	OccurredAt time.Time `gorm:"column:occurred_at;not null" json:"occurred_at"`
	Payload    []byte    `gorm:"column:payload;not null" json:"payload"`
}

// TableName MatchEvent's table name
func (*MatchEvent) TableName() string {
	return TableNameMatchEvent
}
