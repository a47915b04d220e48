package world

import (
	"container/heap"
	"fmt"
)

// Route configures a search. Blocked cells are never entered except the
// goal itself; Cost prices a single step and defaults to 1.
type Route struct {
	Blocked func(Point) bool
	Cost    func(from, to Point) int
}

type openNode struct {
	pos   Point
	f     int
	seq   int
	index int
}

type openSet []*openNode

func (s openSet) Len() int { return len(s) }

func (s openSet) Less(i, j int) bool {
	if s[i].f != s[j].f {
		return s[i].f < s[j].f
	}
	return s[i].seq < s[j].seq
}

func (s openSet) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
	s[i].index = i
	s[j].index = j
}

func (s *openSet) Push(x any) {
	n := x.(*openNode)
	n.index = len(*s)
	*s = append(*s, n)
}

func (s *openSet) Pop() any {
	old := *s
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*s = old[:len(old)-1]
	return n
}

// FindPath runs A* over the 4-connected grid with a Manhattan heuristic.
// The returned path starts at from and ends at to. Equal scores are expanded
// in insertion order.
func FindPath(m Map, from, to Point, r Route) ([]Point, bool) {
	if !m.InBounds(from) || !m.InBounds(to) {
		return nil, false
	}
	if from == to {
		return []Point{from}, true
	}
	cost := r.Cost
	if cost == nil {
		cost = func(_, _ Point) int { return 1 }
	}
	blocked := func(p Point) bool {
		if p == to {
			return false
		}
		if m.AtPoint(p) == Wall {
			return true
		}
		return r.Blocked != nil && r.Blocked(p)
	}

	size := m.Width() * m.Height()
	idx := func(p Point) int { return p.Y*m.Width() + p.X }
	g := make([]int, size)
	for i := range g {
		g[i] = -1
	}
	parent := make([]int, size)
	closed := make([]bool, size)
	nodes := make([]*openNode, size)

	seq := 0
	open := &openSet{}
	g[idx(from)] = 0
	parent[idx(from)] = -1
	start := &openNode{pos: from, f: from.Manhattan(to), seq: seq}
	nodes[idx(from)] = start
	heap.Push(open, start)

	for open.Len() > 0 {
		cur := heap.Pop(open).(*openNode)
		ci := idx(cur.pos)
		nodes[ci] = nil
		if cur.pos == to {
			return rebuild(parent, ci, m.Width()), true
		}
		closed[ci] = true
		for _, d := range AllDirections {
			next := cur.pos.Step(d)
			if !m.InBounds(next) || blocked(next) {
				continue
			}
			ni := idx(next)
			if closed[ni] {
				continue
			}
			step := cost(cur.pos, next)
			if step < 1 {
				step = 1
			}
			tentative := g[ci] + step
			if g[ni] >= 0 && tentative >= g[ni] {
				continue
			}
			g[ni] = tentative
			parent[ni] = ci
			f := tentative + next.Manhattan(to)
			if n := nodes[ni]; n != nil {
				n.f = f
				heap.Fix(open, n.index)
				continue
			}
			seq++
			n := &openNode{pos: next, f: f, seq: seq}
			nodes[ni] = n
			heap.Push(open, n)
		}
	}
	return nil, false
}

func rebuild(parent []int, last, width int) []Point {
	path := []Point{}
	for i := last; i >= 0; i = parent[i] {
		path = append(path, Point{X: i % width, Y: i / width})
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}

// Directions turns a path into single steps, nearest first. Paths from
// FindPath are always orthogonal; anything else is a programming error.
func Directions(path []Point) []Direction {
	if len(path) < 2 {
		return nil
	}
	out := make([]Direction, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		d, ok := path[i-1].DirectionTo(path[i])
		if !ok {
			panic(fmt.Sprintf("world: non-orthogonal step %v -> %v", path[i-1], path[i]))
		}
		out = append(out, d)
	}
	return out
}
