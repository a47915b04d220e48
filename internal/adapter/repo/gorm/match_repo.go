package gormrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chaserbot/internal/adapter/repo/gorm/model"
	"chaserbot/internal/app/ports"
	"chaserbot/internal/domain/match"
)

type MatchRepo struct {
	db *gorm.DB
}

var _ ports.MatchRepository = MatchRepo{}

func NewMatchRepo(db *gorm.DB) MatchRepo {
	return MatchRepo{db: db}
}

func (r MatchRepo) Create(ctx context.Context, rec ports.MatchRecord) error {
	m := model.Match{
		MatchID:   rec.MatchID,
		Room:      rec.Room,
		Us:        rec.Us,
		Opponent:  rec.Opponent,
		Side:      rec.Side,
		StartedAt: rec.StartedAt,
	}
	res := dbFor(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrConflict
	}
	return nil
}

func (r MatchRepo) Finish(ctx context.Context, result match.Result) error {
	updates := map[string]any{
		"won":            result.Won,
		"reason":         result.Reason,
		"score_us":       result.ScoreUs,
		"score_opponent": result.ScoreOpponent,
		"ended_at":       result.EndedAt,
	}
	res := dbFor(ctx, r.db).
		Model(&model.Match{}).
		Where(&model.Match{MatchID: result.MatchID}).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r MatchRepo) GetByMatchID(ctx context.Context, matchID string) (ports.MatchRecord, error) {
	var m model.Match
	err := dbFor(ctx, r.db).Where(&model.Match{MatchID: matchID}).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ports.MatchRecord{}, ports.ErrNotFound
	}
	if err != nil {
		return ports.MatchRecord{}, err
	}
	return ports.MatchRecord{
		MatchID:       m.MatchID,
		Room:          m.Room,
		Us:            m.Us,
		Opponent:      m.Opponent,
		Side:          m.Side,
		Won:           m.Won,
		Reason:        m.Reason,
		ScoreUs:       int(m.ScoreUs),
		ScoreOpponent: int(m.ScoreOpponent),
		StartedAt:     m.StartedAt,
		EndedAt:       m.EndedAt,
	}, nil
}
