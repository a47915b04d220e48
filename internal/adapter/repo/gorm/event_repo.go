package gormrepo

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chaserbot/internal/adapter/repo/gorm/model"
	"chaserbot/internal/app/ports"
	"chaserbot/internal/domain/match"
)

type EventRepo struct {
	db *gorm.DB
}

var _ ports.EventRepository = EventRepo{}

func NewEventRepo(db *gorm.DB) EventRepo {
	return EventRepo{db: db}
}

func (r EventRepo) Append(ctx context.Context, matchID string, events []match.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]model.MatchEvent, 0, len(events))
	for _, e := range events {
		b, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", e.Type, err)
		}
		rows = append(rows, model.MatchEvent{
			MatchID:    matchID,
			Type:       e.Type,
			OccurredAt: e.OccurredAt,
			Payload:    b,
		})
	}
	return dbFor(ctx, r.db).Create(&rows).Error
}

// ListByMatchID returns the newest events first.
func (r EventRepo) ListByMatchID(ctx context.Context, matchID string, limit int) ([]match.DomainEvent, error) {
	rows := []model.MatchEvent{}
	query := dbFor(ctx, r.db).
		Where(&model.MatchEvent{MatchID: matchID}).
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{
				{Column: clause.Column{Name: "occurred_at"}, Desc: true},
				{Column: clause.Column{Name: "id"}, Desc: true},
			},
		})
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ports.ErrNotFound
	}

	out := make([]match.DomainEvent, 0, len(rows))
	for _, row := range rows {
		var payload map[string]any
		if len(row.Payload) > 0 {
			_ = json.Unmarshal(row.Payload, &payload)
		}
		out = append(out, match.DomainEvent{
			Type:       row.Type,
			OccurredAt: row.OccurredAt,
			Payload:    payload,
		})
	}
	return out, nil
}
