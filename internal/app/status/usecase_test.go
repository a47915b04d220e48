package status

import (
	"context"
	"errors"
	"testing"

	"chaserbot/internal/app/ports"
	"chaserbot/internal/domain/match"
	"chaserbot/internal/domain/world"
	"chaserbot/internal/protocol"
)

func TestUseCase_RequiresJoinedMatch(t *testing.T) {
	if _, err := (UseCase{}).Execute(context.Background()); !errors.Is(err, ErrNotJoined) {
		t.Fatalf("expected ErrNotJoined, got %v", err)
	}
	uc := UseCase{Sessions: staticSessions{}}
	if _, err := uc.Execute(context.Background()); !errors.Is(err, ErrNotJoined) {
		t.Fatalf("expected ErrNotJoined for empty registry, got %v", err)
	}
}

func TestUseCase_RendersSnapshot(t *testing.T) {
	m := world.NewMap(3, 2)
	m.Set(0, 0, world.Hot)
	m.Set(2, 1, world.Cold)
	m.Set(1, 0, world.Heart)
	players, _ := match.Resolve("bot", "alice", "bot")
	players.Us.Pos = world.Point{X: 0, Y: 0}
	players.Us.Score = 3
	players.Opponent.Pos = world.Point{X: 2, Y: 1}
	players.Opponent.Known = true
	st := match.GameState{
		MatchID:   "m1",
		Room:      "r1",
		Phase:     match.Turn(world.SideCold),
		Map:       m,
		TurnsLeft: 42,
		Ready:     true,
		Players:   players,
		Effect:    &world.Effect{Kind: world.EffectDirection, Player: world.SideCold, Dir: world.Left, HasDir: true},
	}

	uc := UseCase{Sessions: staticSessions{session: fakeSession{st: st}}}
	resp, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if resp.Phase != "turn" || resp.Acting != "cold" || resp.TurnsLeft != 42 || !resp.Ready {
		t.Fatalf("unexpected header: %+v", resp)
	}
	if resp.Us.Side != "hot" || resp.Us.Score != 3 || resp.Opponent.X != 2 || !resp.Opponent.Known {
		t.Fatalf("unexpected players: %+v / %+v", resp.Us, resp.Opponent)
	}
	if resp.Effect == nil || resp.Effect.Kind != "s" || resp.Effect.Direction != "left" {
		t.Fatalf("unexpected effect: %+v", resp.Effect)
	}
	if resp.Width != 3 || resp.Height != 2 || resp.Map[0][1] != 2 || resp.Map[1][2] != 3 || resp.Map[0][0] != 4 {
		t.Fatalf("unexpected map: %v", resp.Map)
	}
}

func TestFromState_ReportsWinner(t *testing.T) {
	st := match.GameState{Map: world.NewMap(1, 1), Phase: match.Ended(world.SideHot, "put")}
	resp := FromState(st)
	if resp.Phase != "ended" || resp.Winner != "hot" || resp.Reason != "put" || resp.Acting != "" {
		t.Fatalf("unexpected ended view: %+v", resp)
	}
}

type staticSessions struct {
	session ports.GameSession
}

func (s staticSessions) Current() (ports.GameSession, bool) {
	return s.session, s.session != nil
}

type fakeSession struct {
	st match.GameState
}

func (f fakeSession) Snapshot() match.GameState { return f.st.Clone() }

func (f fakeSession) Submit(context.Context, protocol.Command) error { return nil }

var _ ports.GameSession = fakeSession{}
