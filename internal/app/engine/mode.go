package engine

import (
	"fmt"

	"chaserbot/internal/domain/world"
)

type ModeKind uint8

const (
	Searching ModeKind = iota
	Wandering
	HeartHunt
	OpponentHunt
	FixDeadlock
)

func (k ModeKind) String() string {
	switch k {
	case Wandering:
		return "wandering"
	case HeartHunt:
		return "heart"
	case OpponentHunt:
		return "opponent"
	case FixDeadlock:
		return "fix_deadlock"
	default:
		return "searching"
	}
}

// Mode is the engine's current intent. Every kind but Searching carries a
// target cell.
type Mode struct {
	Kind   ModeKind
	Target world.Point
}

func (m Mode) String() string {
	if m.Kind == Searching {
		return m.Kind.String()
	}
	return fmt.Sprintf("%s(%d,%d)", m.Kind, m.Target.X, m.Target.Y)
}
