package match

import (
	"testing"

	"chaserbot/internal/domain/world"
)

func TestPhaseAdvanceIsForwardOnly(t *testing.T) {
	p := Starting()
	p, ok := p.Advance(Turn(world.SideHot))
	if !ok || p.Kind != PhaseTurn {
		t.Fatalf("expected turn phase, got %+v ok=%v", p, ok)
	}
	p, ok = p.Advance(Turn(world.SideCold))
	if !ok || p.Side != world.SideCold {
		t.Fatalf("expected turn to pass to cold, got %+v", p)
	}
	if _, ok := p.Advance(Starting()); ok {
		t.Fatalf("expected turn->starting to be rejected")
	}
	p, ok = p.Advance(Ended(world.SideHot, "put"))
	if !ok || !p.IsEnded() {
		t.Fatalf("expected ended phase, got %+v", p)
	}
	if next, ok := p.Advance(Turn(world.SideHot)); ok || next.Winner != world.SideHot {
		t.Fatalf("expected ended to be terminal, got %+v ok=%v", next, ok)
	}
}

func TestResolveAssignsSides(t *testing.T) {
	players, ok := Resolve("bot", "other", "bot")
	if !ok {
		t.Fatalf("expected name to resolve")
	}
	if players.Us.Side != world.SideHot || players.Opponent.Side != world.SideCold {
		t.Fatalf("unexpected sides: %+v", players)
	}
	if players.Opponent.Name != "other" {
		t.Fatalf("unexpected opponent name: %s", players.Opponent.Name)
	}
	if _, ok := Resolve("ghost", "a", "b"); ok {
		t.Fatalf("expected unknown name to fail")
	}
}

func TestAssignScoresFollowsOurSide(t *testing.T) {
	players, _ := Resolve("bot", "bot", "other")
	players.AssignScores(7, 3)
	if players.Us.Score != 7 || players.Opponent.Score != 3 {
		t.Fatalf("cold player should take the cold score: %+v", players)
	}
	players, _ = Resolve("bot", "other", "bot")
	players.AssignScores(7, 3)
	if players.Us.Score != 3 || players.Opponent.Score != 7 {
		t.Fatalf("hot player should take the hot score: %+v", players)
	}
}

func TestPredictThenCorrect(t *testing.T) {
	p := Player{Pos: world.Point{X: 1, Y: 1}, Known: true}
	p.Predict(world.Point{X: 2, Y: 1})
	if !p.Predicted || p.Pos != (world.Point{X: 2, Y: 1}) {
		t.Fatalf("unexpected prediction: %+v", p)
	}
	p.Correct(world.Point{X: 1, Y: 1}, true)
	if p.Predicted || p.Pos != (world.Point{X: 1, Y: 1}) {
		t.Fatalf("expected authoritative position to win: %+v", p)
	}
	p.Correct(world.Point{}, false)
	if p.Known || p.Pos != (world.Point{X: 1, Y: 1}) {
		t.Fatalf("unknown correction should keep the last position: %+v", p)
	}
}

func TestTurnsLeftNeverIncreases(t *testing.T) {
	s := GameState{TurnsLeft: -1}
	s.SetTurnsLeft(100)
	if s.TurnsLeft != 100 {
		t.Fatalf("expected first counter to apply, got %d", s.TurnsLeft)
	}
	s.SetTurnsLeft(99)
	s.SetTurnsLeft(120)
	if s.TurnsLeft != 99 {
		t.Fatalf("expected 99, got %d", s.TurnsLeft)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := GameState{Map: world.NewMap(3, 3), Effect: &world.Effect{Kind: world.EffectDirection}}
	c := s.Clone()
	c.Map.Set(1, 1, world.Wall)
	c.Effect.Kind = world.EffectAroundCurrent
	if s.Map.At(1, 1) != world.Blank {
		t.Fatalf("clone shares map storage")
	}
	if s.Effect.Kind != world.EffectDirection {
		t.Fatalf("clone shares effect")
	}
}
