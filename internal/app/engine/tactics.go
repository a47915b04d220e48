package engine

import (
	"slices"

	"chaserbot/internal/domain/match"
	"chaserbot/internal/domain/world"
	"chaserbot/internal/protocol"
)

// enclosed reports whether every orthogonal neighbor is a wall, the board
// edge or a cell we walled off ourselves.
func (e *Engine) enclosed(m world.Map, p world.Point) bool {
	if m.Deadlocked(p) {
		return true
	}
	for _, n := range m.Neighbors4(p) {
		if n.Elem != world.Wall && !e.blacklisted(n.Pos) {
			return false
		}
	}
	return true
}

// randomReachable picks a uniformly random open cell reachable from origin
// within radius steps. A radius of zero means the whole board. A nil blocked
// leaves only walls in the way.
func (e *Engine) randomReachable(m world.Map, origin world.Point, radius int, blocked func(world.Point) bool) (world.Point, bool) {
	if !m.InBounds(origin) {
		return world.Point{}, false
	}
	depth := map[world.Point]int{origin: 0}
	queue := []world.Point{origin}
	candidates := []world.Point{}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if radius > 0 && depth[cur] >= radius {
			continue
		}
		for _, n := range m.Neighbors4(cur) {
			if _, seen := depth[n.Pos]; seen {
				continue
			}
			if !m.Open(n.Pos) || (blocked != nil && blocked(n.Pos)) {
				continue
			}
			depth[n.Pos] = depth[cur] + 1
			queue = append(queue, n.Pos)
			candidates = append(candidates, n.Pos)
		}
	}
	if len(candidates) == 0 {
		return world.Point{}, false
	}
	return candidates[e.rng.IntN(len(candidates))], true
}

// viableHeart filters out hearts in dead ends: the heart needs enough open
// neighbors, and those neighbors need enough open cells around them.
func (e *Engine) viableHeart(m world.Map, h world.Point) bool {
	open := 0
	ring := map[world.Point]struct{}{}
	for _, n := range m.Neighbors4(h) {
		if !m.Open(n.Pos) || e.blacklisted(n.Pos) {
			continue
		}
		open++
		for _, nn := range m.Neighbors4(n.Pos) {
			if nn.Pos == h || !m.Open(nn.Pos) || e.blacklisted(nn.Pos) {
				continue
			}
			ring[nn.Pos] = struct{}{}
		}
	}
	return open >= e.tuning.HeartOpenNeighbors && len(ring) >= e.tuning.HeartOpenSecondRing
}

func (e *Engine) nearestViableHeart(m world.Map, from world.Point) (world.Point, bool) {
	best, found := world.Point{}, false
	for _, h := range m.Hearts() {
		if e.blacklisted(h) || !e.viableHeart(m, h) {
			continue
		}
		if !found || h.Manhattan(from) < best.Manhattan(from) {
			best, found = h, true
		}
	}
	return best, found
}

func (e *Engine) probeChance(turnsLeft int) float64 {
	if turnsLeft >= 0 && turnsLeft <= e.tuning.UrgentTurns {
		return e.tuning.UrgentProbeChance
	}
	return e.tuning.ProbeChance
}

// reconnoitre probes toward the half of the board we are not in, picking
// the horizontal or vertical half at random.
func (e *Engine) reconnoitre(m world.Map, self world.Point) protocol.Command {
	dir := world.Right
	if self.X >= m.Width()/2 {
		dir = world.Left
	}
	if e.rng.IntN(2) == 0 {
		dir = world.Bottom
		if self.Y >= m.Height()/2 {
			dir = world.Top
		}
	}
	if e.rng.IntN(2) == 0 {
		return protocol.Look{Dir: dir}
	}
	return protocol.Search{Dir: dir}
}

// route prices steps by distance to the opponent unless we are hunting it,
// so scavenging keeps away from them. Escapes only avoid real walls.
func (e *Engine) route(st match.GameState) world.Route {
	r := world.Route{Blocked: e.blacklisted}
	if e.mode.Kind == FixDeadlock {
		r.Blocked = nil
	}
	opp := st.Players.Opponent
	if e.mode.Kind == OpponentHunt || !opp.Known {
		return r
	}
	span := st.Map.Width() + st.Map.Height()
	r.Cost = func(_, to world.Point) int {
		return span - to.Manhattan(opp.Pos)
	}
	return r
}

// mark is a cell route planning treats as a wall. Placed walls stay until
// they roll out of the list; trail cells expire at turn expires.
type mark struct {
	pos     world.Point
	expires int
}

func (m mark) permanent() bool { return m.expires == 0 }

// remember blacklists a cell we walled off.
func (e *Engine) remember(p world.Point) {
	e.push(mark{pos: p})
}

// rememberTrail blacklists a cell we walked through for TrailTurns
// decisions. A TrailTurns of zero keeps it until it rolls out.
func (e *Engine) rememberTrail(p world.Point) {
	m := mark{pos: p}
	if e.tuning.TrailTurns > 0 {
		m.expires = e.turn + e.tuning.TrailTurns
	}
	e.push(m)
}

func (e *Engine) push(m mark) {
	if e.tuning.BlacklistSize <= 0 {
		return
	}
	e.blacklist = slices.DeleteFunc(e.blacklist, func(old mark) bool { return old.pos == m.pos })
	e.blacklist = append(e.blacklist, m)
	if over := len(e.blacklist) - e.tuning.BlacklistSize; over > 0 {
		e.blacklist = slices.Delete(e.blacklist, 0, over)
	}
}

// expire drops trail cells whose time is up.
func (e *Engine) expire() {
	e.blacklist = slices.DeleteFunc(e.blacklist, func(m mark) bool {
		return !m.permanent() && m.expires <= e.turn
	})
}

// forgetTrail drops every trail cell, keeping placed walls.
func (e *Engine) forgetTrail() {
	e.blacklist = slices.DeleteFunc(e.blacklist, func(m mark) bool { return !m.permanent() })
}

func (e *Engine) blacklisted(p world.Point) bool {
	return slices.ContainsFunc(e.blacklist, func(m mark) bool { return m.pos == p })
}
