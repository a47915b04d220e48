package world

import (
	"errors"
	"fmt"
)

// EffectKind names the probe shape the server reports for the last action.
type EffectKind uint8

const (
	EffectAroundCurrent EffectKind = iota
	EffectAroundSide
	EffectDirection
)

var ErrUnknownEffect = errors.New("unknown effect kind")

func ParseEffectKind(token string) (EffectKind, error) {
	switch token {
	case "r":
		return EffectAroundCurrent, nil
	case "l":
		return EffectAroundSide, nil
	case "s":
		return EffectDirection, nil
	default:
		return EffectAroundCurrent, fmt.Errorf("%w: %q", ErrUnknownEffect, token)
	}
}

func (k EffectKind) Token() string {
	switch k {
	case EffectAroundSide:
		return "l"
	case EffectDirection:
		return "s"
	default:
		return "r"
	}
}

// Effect describes the most recent action. It is only used to interpret the
// next probe result.
type Effect struct {
	Kind   EffectKind
	Player Side
	Dir    Direction
	HasDir bool
}

type ProbeShape uint8

const (
	ShapeArea ProbeShape = iota
	ShapeRay
)

// AreaShift is how far a directional area probe moves its 3x3 window: the
// window ends up adjacent to the player.
const AreaShift = 2

// RayLength is the number of cells a ray probe reports.
const RayLength = 9

// Probe is one probe result ready to merge into a remembered map.
type Probe struct {
	Shape ProbeShape
	// Dir is the ray direction, or the area shift when Shifted is set.
	Dir     Direction
	Shifted bool
	Codes   []RelElement
}

func AreaProbe(codes []RelElement) Probe {
	return Probe{Shape: ShapeArea, Codes: codes}
}

func ShiftedAreaProbe(dir Direction, codes []RelElement) Probe {
	return Probe{Shape: ShapeArea, Dir: dir, Shifted: true, Codes: codes}
}

func RayProbe(dir Direction, codes []RelElement) Probe {
	return Probe{Shape: ShapeRay, Dir: dir, Codes: codes}
}

// Footprint lists the cell each code lands on, in code order. Cells may lie
// off the board.
func (p Probe) Footprint(origin Point) []Point {
	switch p.Shape {
	case ShapeRay:
		out := make([]Point, 0, len(p.Codes))
		for i := range p.Codes {
			out = append(out, origin.Offset(p.Dir, i+1))
		}
		return out
	default:
		center := origin
		if p.Shifted {
			center = origin.Offset(p.Dir, AreaShift)
		}
		out := make([]Point, 0, 9)
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				out = append(out, Point{X: center.X + dx, Y: center.Y + dy})
			}
		}
		return out
	}
}

// Fix is what the remembered map knows about both pieces.
type Fix struct {
	Self     Point
	Opponent Point
	Sighted  bool
}

// MergeProbe writes a probe result seen by ours into m. Cells outside the
// footprint keep their remembered value. At most one opponent marker
// survives: a new sighting clears the old one, and a footprint covering the
// remembered cell without seeing the opponent marks it as departed.
func MergeProbe(m Map, probe Probe, ours Side, fix Fix) Fix {
	theirs := ours.Other()
	cells := probe.Footprint(fix.Self)
	var (
		sightedAt  Point
		sighted    bool
		coveredOld bool
	)
	for i, code := range probe.Codes {
		if i >= len(cells) {
			break
		}
		c := cells[i]
		if !m.InBounds(c) {
			continue
		}
		if fix.Sighted && c == fix.Opponent {
			coveredOld = true
		}
		if c == fix.Self {
			clearAll(m, ours)
			if code == RelOpponent && !sighted {
				sightedAt, sighted = c, true
				m.SetPoint(c, BothColdAndHot)
			} else {
				m.SetPoint(c, ours.Element())
			}
			continue
		}
		e := code.Absolute(ours)
		if code == RelOpponent {
			if sighted {
				e = Blank
			} else {
				sightedAt, sighted = c, true
			}
		}
		m.SetPoint(c, e)
	}

	switch {
	case sighted:
		clearAllExcept(m, theirs, sightedAt)
		fix.Opponent, fix.Sighted = sightedAt, true
	case coveredOld:
		fix.Sighted = false
	}
	return fix
}

// clearMarker removes side's piece from p, leaving the other piece if the
// cell was shared.
func clearMarker(m Map, side Side, p Point) {
	switch m.AtPoint(p) {
	case BothColdAndHot:
		m.SetPoint(p, side.Other().Element())
	case side.Element():
		m.SetPoint(p, Blank)
	}
}

// clearAll removes every marker of side.
func clearAll(m Map, side Side) {
	for i, e := range m.cells {
		if e.Holds(side) {
			clearMarker(m, side, Point{X: i % m.width, Y: i / m.width})
		}
	}
}

func clearAllExcept(m Map, side Side, keep Point) {
	for i, e := range m.cells {
		p := Point{X: i % m.width, Y: i / m.width}
		if p != keep && e.Holds(side) {
			clearMarker(m, side, p)
		}
	}
}

// putMarker places side's piece on p, sharing the cell if the other piece is
// already there.
func putMarker(m Map, side Side, p Point) {
	if m.AtPoint(p).Holds(side.Other()) {
		m.SetPoint(p, BothColdAndHot)
		return
	}
	m.SetPoint(p, side.Element())
}

// locate finds side on board, preferring the cells around its last known
// position.
func locate(board Map, side Side, last Point, known bool) (Point, bool) {
	if known {
		if p, ok := board.FindNear(side, last, 1); ok {
			return p, true
		}
	}
	return board.Find(side)
}
