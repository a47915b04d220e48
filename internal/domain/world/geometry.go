package world

import (
	"errors"
	"fmt"
)

type Side uint8

const (
	SideHot Side = iota
	SideCold
)

var ErrUnknownSide = errors.New("unknown side")

// ParseSide accepts the server's tokens; the cold side is spelled "cool" on the wire.
func ParseSide(token string) (Side, error) {
	switch token {
	case "hot":
		return SideHot, nil
	case "cool", "cold":
		return SideCold, nil
	default:
		return SideHot, fmt.Errorf("%w: %q", ErrUnknownSide, token)
	}
}

func (s Side) Token() string {
	if s == SideCold {
		return "cool"
	}
	return "hot"
}

func (s Side) String() string {
	if s == SideCold {
		return "cold"
	}
	return "hot"
}

func (s Side) Other() Side {
	if s == SideCold {
		return SideHot
	}
	return SideCold
}

// Element is the board marker for a lone piece of side s.
func (s Side) Element() Element {
	if s == SideCold {
		return Cold
	}
	return Hot
}

type Direction uint8

const (
	Top Direction = iota
	Right
	Bottom
	Left
)

// AllDirections lists the four directions clockwise from Top.
var AllDirections = [...]Direction{Top, Right, Bottom, Left}

var ErrUnknownDirection = errors.New("unknown direction")

func ParseDirection(token string) (Direction, error) {
	switch token {
	case "top":
		return Top, nil
	case "bottom":
		return Bottom, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return Top, fmt.Errorf("%w: %q", ErrUnknownDirection, token)
	}
}

func (d Direction) String() string {
	switch d {
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

func (d Direction) Flip() Direction {
	return (d + 2) % 4
}

// RotateLeft turns counter-clockwise: Top becomes Left.
func (d Direction) RotateLeft() Direction {
	return (d + 3) % 4
}

// RotateRight turns clockwise: Top becomes Right.
func (d Direction) RotateRight() Direction {
	return (d + 1) % 4
}

// Delta is the unit offset of d. Y grows downward.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Top:
		return 0, -1
	case Bottom:
		return 0, 1
	case Left:
		return -1, 0
	default:
		return 1, 0
	}
}

func (d Direction) Vertical() bool {
	return d == Top || d == Bottom
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) Step(d Direction) Point {
	dx, dy := d.Delta()
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Offset moves p n cells toward d.
func (p Point) Offset(d Direction, n int) Point {
	dx, dy := d.Delta()
	return Point{X: p.X + dx*n, Y: p.Y + dy*n}
}

func (p Point) Manhattan(q Point) int {
	return abs(p.X-q.X) + abs(p.Y-q.Y)
}

// DirectionTo returns the direction of an orthogonally adjacent q.
func (p Point) DirectionTo(q Point) (Direction, bool) {
	for _, d := range AllDirections {
		if p.Step(d) == q {
			return d, true
		}
	}
	return Top, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
