package match

import (
	"time"

	"chaserbot/internal/domain/world"
)

type PhaseKind string

const (
	PhaseStarting PhaseKind = "starting"
	PhaseTurn     PhaseKind = "turn"
	PhaseEnded    PhaseKind = "ended"
)

// Phase moves forward only: Starting, then any number of Turns, then Ended.
type Phase struct {
	Kind   PhaseKind  `json:"kind"`
	Side   world.Side `json:"-"`
	Winner world.Side `json:"-"`
	Reason string     `json:"reason,omitempty"`
}

func Starting() Phase { return Phase{Kind: PhaseStarting} }

func Turn(side world.Side) Phase { return Phase{Kind: PhaseTurn, Side: side} }

func Ended(winner world.Side, reason string) Phase {
	return Phase{Kind: PhaseEnded, Winner: winner, Reason: reason}
}

func (p Phase) IsEnded() bool { return p.Kind == PhaseEnded }

func (p Phase) rank() int {
	switch p.Kind {
	case PhaseTurn:
		return 1
	case PhaseEnded:
		return 2
	default:
		return 0
	}
}

// Advance returns next when it does not move the phase backwards. Nothing
// follows Ended.
func (p Phase) Advance(next Phase) (Phase, bool) {
	if p.IsEnded() || next.rank() < p.rank() {
		return p, false
	}
	return next, true
}

type Player struct {
	Name  string      `json:"name"`
	Side  world.Side  `json:"-"`
	Score int         `json:"score"`
	Pos   world.Point `json:"pos"`
	// Known is false while the opponent has not been sighted.
	Known bool `json:"known"`
	// Predicted marks a position advanced locally after sending a move and
	// not yet confirmed by a board update.
	Predicted bool `json:"predicted"`
}

// Predict records where a move we just sent should land.
func (p *Player) Predict(pos world.Point) {
	p.Pos = pos
	p.Known = true
	p.Predicted = true
}

// Correct applies the authoritative position, whatever was predicted.
func (p *Player) Correct(pos world.Point, known bool) {
	if known {
		p.Pos = pos
	}
	p.Known = known
	p.Predicted = false
}

type Players struct {
	Us       Player `json:"us"`
	Opponent Player `json:"opponent"`
}

// AssignScores maps the server's absolute cold/hot scores onto us/opponent.
func (p *Players) AssignScores(cold, hot int) {
	if p.Us.Side == world.SideCold {
		p.Us.Score, p.Opponent.Score = cold, hot
		return
	}
	p.Us.Score, p.Opponent.Score = hot, cold
}

// Resolve assigns sides by matching our name against the room's players.
func Resolve(name, coldName, hotName string) (Players, bool) {
	switch name {
	case coldName:
		return Players{
			Us:       Player{Name: coldName, Side: world.SideCold, Known: true},
			Opponent: Player{Name: hotName, Side: world.SideHot},
		}, true
	case hotName:
		return Players{
			Us:       Player{Name: hotName, Side: world.SideHot, Known: true},
			Opponent: Player{Name: coldName, Side: world.SideCold},
		}, true
	default:
		return Players{}, false
	}
}

// Fix converts the players' positions into the map view's terms.
func (p Players) Fix() world.Fix {
	return world.Fix{Self: p.Us.Pos, Opponent: p.Opponent.Pos, Sighted: p.Opponent.Known}
}

// GameState is the single authoritative view of a running match.
type GameState struct {
	MatchID   string        `json:"match_id"`
	Room      string        `json:"room"`
	Phase     Phase         `json:"phase"`
	Map       world.Map     `json:"-"`
	Partial   bool          `json:"partial"`
	Effect    *world.Effect `json:"-"`
	TurnsLeft int           `json:"turns_left"`
	// Ready is set while the server has granted our turn and nothing has
	// been forwarded yet.
	Ready bool `json:"ready"`
	// Grant counts turns granted by the server so far.
	Grant     uint64    `json:"grant"`
	Players   Players   `json:"players"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s GameState) Size() (width, height int) {
	return s.Map.Width(), s.Map.Height()
}

// Clone is a deep copy safe to read without the owner's lock.
func (s GameState) Clone() GameState {
	out := s
	out.Map = s.Map.Clone()
	if s.Effect != nil {
		e := *s.Effect
		out.Effect = &e
	}
	return out
}

// SetTurnsLeft applies the server's counter without ever letting it grow.
// A negative TurnsLeft means no counter has been seen yet.
func (s *GameState) SetTurnsLeft(turns int) {
	if turns < 0 {
		return
	}
	if s.TurnsLeft < 0 || turns < s.TurnsLeft {
		s.TurnsLeft = turns
	}
}
