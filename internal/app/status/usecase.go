package status

import (
	"context"
	"errors"

	"chaserbot/internal/app/ports"
	"chaserbot/internal/domain/match"
)

var ErrNotJoined = errors.New("no match joined yet")

type Sessions interface {
	Current() (ports.GameSession, bool)
}

type UseCase struct {
	Sessions Sessions
}

func (u UseCase) Execute(ctx context.Context) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if u.Sessions == nil {
		return Response{}, ErrNotJoined
	}
	session, ok := u.Sessions.Current()
	if !ok {
		return Response{}, ErrNotJoined
	}
	return FromState(session.Snapshot()), nil
}

func FromState(st match.GameState) Response {
	w, h := st.Size()
	resp := Response{
		MatchID:   st.MatchID,
		Room:      st.Room,
		Phase:     string(st.Phase.Kind),
		Reason:    st.Phase.Reason,
		TurnsLeft: st.TurnsLeft,
		Ready:     st.Ready,
		Partial:   st.Partial,
		Width:     w,
		Height:    h,
		Us:        playerView(st.Players.Us),
		Opponent:  playerView(st.Players.Opponent),
		Map:       st.Map.Codes(),
		UpdatedAt: st.UpdatedAt,
	}
	switch st.Phase.Kind {
	case match.PhaseTurn:
		resp.Acting = st.Phase.Side.String()
	case match.PhaseEnded:
		resp.Winner = st.Phase.Winner.String()
	}
	if e := st.Effect; e != nil {
		resp.Effect = &EffectView{Kind: e.Kind.Token(), Player: e.Player.String()}
		if e.HasDir {
			resp.Effect.Direction = e.Dir.String()
		}
	}
	return resp
}

func playerView(p match.Player) PlayerView {
	return PlayerView{
		Name:      p.Name,
		Side:      p.Side.String(),
		Score:     p.Score,
		X:         p.Pos.X,
		Y:         p.Pos.Y,
		Known:     p.Known,
		Predicted: p.Predicted,
	}
}
