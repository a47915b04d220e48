package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"chaserbot/internal/app/ports"
	"chaserbot/internal/domain/match"
	"chaserbot/internal/domain/world"
	"chaserbot/internal/protocol"
)

const DefaultInterval = 50 * time.Millisecond

type Config struct {
	Tuning   Tuning
	Interval time.Duration
	// Seed fixes the random source; zero picks one from the clock.
	Seed    uint64
	Metrics ports.DecisionMetrics
	Logger  *zap.Logger
}

// Engine picks one command per turn from state snapshots. Its fields are
// owned by the goroutine running Run.
type Engine struct {
	session  ports.GameSession
	tuning   Tuning
	interval time.Duration
	rng      *rand.Rand
	metrics  ports.DecisionMetrics
	log      *zap.Logger

	mode      Mode
	lastGrant uint64
	stuck     int
	skips     int
	turn      int
	blacklist []mark
}

func New(session ports.GameSession, cfg Config) *Engine {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	e := &Engine{
		session:  session,
		tuning:   cfg.Tuning,
		interval: cfg.Interval,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		metrics:  cfg.Metrics,
		log:      cfg.Logger,
	}
	if e.interval <= 0 {
		e.interval = DefaultInterval
	}
	if e.metrics == nil {
		e.metrics = noopMetrics{}
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e
}

func (e *Engine) Mode() Mode { return e.mode }

// Run decides and submits until the match ends. It decides once per turn
// granted by the server, so the snapshot already reflects the opponent's
// last action.
func (e *Engine) Run(ctx context.Context) error {
	limiter := rate.NewLimiter(rate.Every(e.interval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		st := e.session.Snapshot()
		if st.Phase.IsEnded() {
			e.log.Info("match over, engine stopping", zap.String("mode", e.mode.String()))
			return nil
		}
		if !st.Ready || st.Grant == e.lastGrant {
			continue
		}
		cmd, ok := e.Decide(st)
		if !ok {
			continue
		}
		err := e.session.Submit(ctx, cmd)
		switch {
		case err == nil:
			e.lastGrant = st.Grant
			e.metrics.RecordCommand(cmd.Packet())
			e.log.Debug("command submitted", zap.String("command", protocol.Describe(cmd)), zap.String("mode", e.mode.String()))
		case errors.Is(err, ports.ErrGameEnded), ctx.Err() != nil:
			return nil
		default:
			return fmt.Errorf("engine: submit: %w", err)
		}
	}
}

// Decide runs one tick of the policy against st.
func (e *Engine) Decide(st match.GameState) (protocol.Command, bool) {
	if st.Phase.IsEnded() {
		return nil, false
	}
	e.turn++
	e.expire()
	m := st.Map
	self := st.Players.Us.Pos
	opp := st.Players.Opponent

	if e.enclosed(m, self) || (opp.Known && opp.Pos == self) || e.stuck > e.tuning.StuckLimit {
		e.stuck = 0
		e.metrics.RecordEscape()
		// The trail may be what boxed us in; escapes only respect real walls.
		e.forgetTrail()
		target, ok := e.randomReachable(m, self, e.tuning.EscapeRadius, nil)
		if !ok {
			// Nowhere to go: spend the turn looking around instead.
			e.setMode(Mode{Kind: Searching})
			return protocol.Search{Dir: world.AllDirections[e.rng.IntN(4)]}, true
		}
		e.setMode(Mode{Kind: FixDeadlock, Target: target})
	}

	theirs := st.Players.Opponent.Side
	for _, n := range m.Neighbors4(self) {
		if n.Elem.Holds(theirs) {
			e.remember(n.Pos)
			return protocol.PutWall{Dir: n.Dir}, true
		}
	}

	if e.rng.Float64() < e.probeChance(st.TurnsLeft) {
		return e.reconnoitre(m, self), true
	}

	for range 2 {
		e.transition(st)
		if e.mode.Kind == Searching {
			e.stuck++
			e.metrics.RecordPlanFailure()
			return nil, false
		}
		if self == e.mode.Target {
			e.setMode(Mode{Kind: Searching})
			continue
		}
		path, ok := world.FindPath(m, self, e.mode.Target, e.route(st))
		if !ok {
			e.stuck++
			e.metrics.RecordPlanFailure()
			e.setMode(Mode{Kind: Searching})
			return nil, false
		}
		e.stuck = 0
		return e.emit(self, world.Directions(path)), true
	}
	return nil, false
}

// transition applies the state machine for this tick.
func (e *Engine) transition(st match.GameState) {
	heart, hasHeart := e.nearestViableHeart(st.Map, st.Players.Us.Pos)
	urgent := e.urgent(st, hasHeart)
	opp := st.Players.Opponent

	switch e.mode.Kind {
	case Searching:
		switch {
		case urgent:
			e.setMode(Mode{Kind: OpponentHunt, Target: opp.Pos})
		case hasHeart && (st.Partial || e.rng.Float64() >= e.tuning.ExploreChance):
			e.setMode(Mode{Kind: HeartHunt, Target: heart})
		default:
			if target, ok := e.randomReachable(st.Map, st.Players.Us.Pos, 0, e.blacklisted); ok {
				e.setMode(Mode{Kind: Wandering, Target: target})
			}
		}
	case Wandering:
		if urgent {
			e.setMode(Mode{Kind: OpponentHunt, Target: opp.Pos})
		}
	case HeartHunt:
		switch {
		case urgent:
			e.setMode(Mode{Kind: OpponentHunt, Target: opp.Pos})
		case st.Map.AtPoint(e.mode.Target) != world.Heart:
			e.setMode(Mode{Kind: Searching})
			e.transition(st)
		}
	case OpponentHunt:
		e.mode.Target = opp.Pos
	}
}

func (e *Engine) urgent(st match.GameState, hasHeart bool) bool {
	opp := st.Players.Opponent
	if !opp.Known {
		return false
	}
	if !hasHeart || st.Players.Us.Pos.Manhattan(opp.Pos) <= e.tuning.AggressiveRange {
		return true
	}
	return st.TurnsLeft >= 0 && st.TurnsLeft < e.tuning.ChargeTurns
}

// emit turns the planned steps into this turn's command.
func (e *Engine) emit(self world.Point, steps []world.Direction) protocol.Command {
	next := steps[0]
	switch e.mode.Kind {
	case OpponentHunt:
		switch {
		case len(steps) == 1:
			e.remember(self.Step(next))
			e.skips = 0
			return protocol.PutWall{Dir: next}
		case len(steps) == 2 && e.skips < e.tuning.MaxSkips && e.rng.Float64() < e.tuning.SkipChance:
			e.skips++
			return protocol.Look{Dir: next}
		}
		e.skips = 0
	case HeartHunt:
		if len(steps) == 1 {
			e.rememberTrail(self)
		}
	}
	return protocol.MovePlayer{Dir: next}
}

func (e *Engine) setMode(m Mode) {
	if m.Kind != e.mode.Kind {
		e.metrics.RecordModeChange(m.Kind.String())
		e.log.Debug("mode change", zap.String("from", e.mode.String()), zap.String("to", m.String()))
	}
	e.mode = m
}

type noopMetrics struct{}

func (noopMetrics) RecordCommand(string)    {}
func (noopMetrics) RecordModeChange(string) {}
func (noopMetrics) RecordPlanFailure()      {}
func (noopMetrics) RecordEscape()           {}
