package world

import (
	"errors"
	"fmt"
)

var ErrRaggedBoard = errors.New("board rows have different lengths")

// Map is a fixed-size grid of cells stored row-major. Its dimensions never
// change after construction.
type Map struct {
	width  int
	height int
	cells  []Element
}

func NewMap(width, height int) Map {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return Map{width: width, height: height, cells: make([]Element, width*height)}
}

// MapFromRows builds a map from row-major rows, as the server sends them.
func MapFromRows(rows [][]Element) (Map, error) {
	if len(rows) == 0 {
		return NewMap(0, 0), nil
	}
	m := NewMap(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != m.width {
			return Map{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRaggedBoard, y, len(row), m.width)
		}
		copy(m.cells[y*m.width:], row)
	}
	return m, nil
}

func (m Map) Width() int  { return m.width }
func (m Map) Height() int { return m.height }

func (m Map) InBounds(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < m.width && p.Y < m.height
}

// At reads the cell at (x, y). Cells outside the board read as Wall.
func (m Map) At(x, y int) Element {
	if !m.InBounds(Point{X: x, Y: y}) {
		return Wall
	}
	return m.cells[y*m.width+x]
}

func (m Map) AtPoint(p Point) Element {
	return m.At(p.X, p.Y)
}

// Set writes the cell at (x, y) and reports false when it is off the board.
func (m Map) Set(x, y int, e Element) bool {
	if !m.InBounds(Point{X: x, Y: y}) {
		return false
	}
	m.cells[y*m.width+x] = e
	return true
}

func (m Map) SetPoint(p Point, e Element) bool {
	return m.Set(p.X, p.Y, e)
}

func (m Map) Clone() Map {
	out := Map{width: m.width, height: m.height, cells: make([]Element, len(m.cells))}
	copy(out.cells, m.cells)
	return out
}

// Rows copies the board into row-major rows.
func (m Map) Rows() [][]Element {
	rows := make([][]Element, m.height)
	for y := range rows {
		rows[y] = append([]Element(nil), m.cells[y*m.width:(y+1)*m.width]...)
	}
	return rows
}

// Codes renders the board as wire codes.
func (m Map) Codes() [][]int {
	rows := make([][]int, m.height)
	for y := range rows {
		row := make([]int, m.width)
		for x := range row {
			row[x] = m.cells[y*m.width+x].Code()
		}
		rows[y] = row
	}
	return rows
}

// Find scans the whole board for the piece of side.
func (m Map) Find(side Side) (Point, bool) {
	for i, e := range m.cells {
		if e.Holds(side) {
			return Point{X: i % m.width, Y: i / m.width}, true
		}
	}
	return Point{}, false
}

// FindNear scans the square of the given radius around origin. A piece that
// can only have moved one cell is found with radius 1.
func (m Map) FindNear(side Side, origin Point, radius int) (Point, bool) {
	for y := origin.Y - radius; y <= origin.Y+radius; y++ {
		for x := origin.X - radius; x <= origin.X+radius; x++ {
			p := Point{X: x, Y: y}
			if m.InBounds(p) && m.AtPoint(p).Holds(side) {
				return p, true
			}
		}
	}
	return Point{}, false
}

// Neighbor is one cell around a position. Dir is meaningful only for
// orthogonal neighbors; diagonal ones carry the vertical component.
type Neighbor struct {
	Elem     Element
	Pos      Point
	Dir      Direction
	Diagonal bool
}

// Neighbors4 lists the in-bounds orthogonal neighbors clockwise from Top.
func (m Map) Neighbors4(p Point) []Neighbor {
	out := make([]Neighbor, 0, 4)
	for _, d := range AllDirections {
		q := p.Step(d)
		if !m.InBounds(q) {
			continue
		}
		out = append(out, Neighbor{Elem: m.AtPoint(q), Pos: q, Dir: d})
	}
	return out
}

// Neighbors8 is Neighbors4 followed by the in-bounds diagonal neighbors.
func (m Map) Neighbors8(p Point) []Neighbor {
	out := m.Neighbors4(p)
	for _, v := range [...]Direction{Top, Bottom} {
		for _, h := range [...]Direction{Left, Right} {
			q := p.Step(v).Step(h)
			if !m.InBounds(q) {
				continue
			}
			out = append(out, Neighbor{Elem: m.AtPoint(q), Pos: q, Dir: v, Diagonal: true})
		}
	}
	return out
}

// Open reports whether a piece may stand on p.
func (m Map) Open(p Point) bool {
	if !m.InBounds(p) {
		return false
	}
	e := m.AtPoint(p)
	return e == Blank || e == Heart
}

func (m Map) Hearts() []Point {
	out := []Point{}
	for i, e := range m.cells {
		if e == Heart {
			out = append(out, Point{X: i % m.width, Y: i / m.width})
		}
	}
	return out
}

// HeartsNear lists hearts within the given Manhattan radius of p.
func (m Map) HeartsNear(p Point, radius int) []Point {
	out := []Point{}
	for _, h := range m.Hearts() {
		if h.Manhattan(p) <= radius {
			out = append(out, h)
		}
	}
	return out
}

// Deadlocked reports whether the piece at p has no orthogonal cell to step
// into: every neighbor is a wall or the board edge.
func (m Map) Deadlocked(p Point) bool {
	for _, n := range m.Neighbors4(p) {
		if n.Elem != Wall {
			return false
		}
	}
	return true
}
