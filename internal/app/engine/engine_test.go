package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"chaserbot/internal/app/ports"
	"chaserbot/internal/domain/match"
	"chaserbot/internal/domain/world"
	"chaserbot/internal/protocol"
)

type countingMetrics struct {
	mu       sync.Mutex
	commands []string
	modes    []string
	failures int
	escapes  int
}

var _ ports.DecisionMetrics = (*countingMetrics)(nil)

func (c *countingMetrics) RecordCommand(packet string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = append(c.commands, packet)
}

func (c *countingMetrics) RecordModeChange(mode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modes = append(c.modes, mode)
}

func (c *countingMetrics) RecordPlanFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
}

func (c *countingMetrics) RecordEscape() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.escapes++
}

// quiet disables every random branch of the policy.
func quiet() Tuning {
	t := DefaultTuning()
	t.ProbeChance = 0
	t.UrgentProbeChance = 0
	t.ExploreChance = 0
	t.SkipChance = 0
	return t
}

func newEngine(t Tuning, metrics ports.DecisionMetrics) *Engine {
	return New(nil, Config{Tuning: t, Seed: 7, Metrics: metrics})
}

// gameState puts us (hot) at self. The opponent (cold) is marked on the map
// only when marked is set.
func gameState(m world.Map, self, opp world.Point, known, marked bool) match.GameState {
	m.SetPoint(self, world.Hot)
	if marked {
		m.SetPoint(opp, world.Cold)
	}
	return match.GameState{
		Map:       m,
		Phase:     match.Turn(world.SideCold),
		TurnsLeft: 100,
		Ready:     true,
		Grant:     1,
		Players: match.Players{
			Us:       match.Player{Name: "bot", Side: world.SideHot, Pos: self, Known: true},
			Opponent: match.Player{Name: "alice", Side: world.SideCold, Pos: opp, Known: known},
		},
	}
}

func walls(m world.Map, pts ...world.Point) world.Map {
	for _, p := range pts {
		m.SetPoint(p, world.Wall)
	}
	return m
}

func TestHeartViabilityRejectsBoxedHeart(t *testing.T) {
	e := newEngine(quiet(), nil)
	m := walls(world.NewMap(7, 7),
		world.Point{X: 3, Y: 2}, world.Point{X: 2, Y: 3}, world.Point{X: 4, Y: 3},
		world.Point{X: 2, Y: 4}, world.Point{X: 4, Y: 4}, world.Point{X: 3, Y: 5},
	)
	m.Set(3, 3, world.Heart)
	if e.viableHeart(m, world.Point{X: 3, Y: 3}) {
		t.Fatalf("boxed heart must not be viable")
	}
	m.Set(1, 1, world.Heart)
	if !e.viableHeart(m, world.Point{X: 1, Y: 1}) {
		t.Fatalf("open heart should be viable")
	}
	if h, ok := e.nearestViableHeart(m, world.Point{X: 3, Y: 4}); !ok || h != (world.Point{X: 1, Y: 1}) {
		t.Fatalf("expected (1,1) as nearest viable heart, got %v ok=%v", h, ok)
	}
}

func TestHeartViabilityThresholdsAreTunable(t *testing.T) {
	tuning := quiet()
	tuning.HeartOpenNeighbors = 1
	tuning.HeartOpenSecondRing = 0
	e := newEngine(tuning, nil)
	m := walls(world.NewMap(7, 7), world.Point{X: 3, Y: 2}, world.Point{X: 2, Y: 3}, world.Point{X: 4, Y: 3})
	m.Set(3, 3, world.Heart)
	if !e.viableHeart(m, world.Point{X: 3, Y: 3}) {
		t.Fatalf("relaxed thresholds should accept a heart with one open side")
	}
}

func TestDecideWallsOffAdjacentOpponent(t *testing.T) {
	e := newEngine(quiet(), nil)
	st := gameState(world.NewMap(6, 6), world.Point{X: 2, Y: 2}, world.Point{X: 3, Y: 2}, true, true)
	cmd, ok := e.Decide(st)
	if !ok {
		t.Fatalf("expected a command")
	}
	if wall, isWall := cmd.(protocol.PutWall); !isWall || wall.Dir != world.Right {
		t.Fatalf("expected put_wall right, got %#v", cmd)
	}
	if !e.blacklisted(world.Point{X: 3, Y: 2}) {
		t.Fatalf("wall target should be blacklisted")
	}
}

func TestDecideEscapesWhenEnclosed(t *testing.T) {
	metrics := &countingMetrics{}
	e := newEngine(quiet(), metrics)
	m := walls(world.NewMap(5, 5),
		world.Point{X: 2, Y: 1}, world.Point{X: 1, Y: 2}, world.Point{X: 3, Y: 2}, world.Point{X: 2, Y: 3},
	)
	st := gameState(m, world.Point{X: 2, Y: 2}, world.Point{X: 0, Y: 0}, false, false)
	cmd, ok := e.Decide(st)
	if !ok {
		t.Fatalf("expected a command")
	}
	if _, isSearch := cmd.(protocol.Search); !isSearch {
		t.Fatalf("expected a search while boxed in, got %#v", cmd)
	}
	if metrics.escapes != 1 {
		t.Fatalf("expected one escape, got %d", metrics.escapes)
	}
}

func TestDecideEscapesAfterRepeatedFailures(t *testing.T) {
	metrics := &countingMetrics{}
	tuning := quiet()
	e := newEngine(tuning, metrics)
	e.stuck = tuning.StuckLimit + 1
	st := gameState(world.NewMap(12, 12), world.Point{X: 5, Y: 5}, world.Point{X: 0, Y: 0}, false, false)
	cmd, ok := e.Decide(st)
	if !ok {
		t.Fatalf("expected a command")
	}
	if _, isMove := cmd.(protocol.MovePlayer); !isMove {
		t.Fatalf("expected a move toward the escape cell, got %#v", cmd)
	}
	if e.Mode().Kind != FixDeadlock {
		t.Fatalf("expected fix_deadlock, got %s", e.Mode())
	}
	if d := e.Mode().Target.Manhattan(world.Point{X: 5, Y: 5}); d == 0 || d > tuning.EscapeRadius {
		t.Fatalf("escape target %v outside radius", e.Mode().Target)
	}
	if e.stuck != 0 || metrics.escapes != 1 {
		t.Fatalf("expected stuck reset and one escape, got stuck=%d escapes=%d", e.stuck, metrics.escapes)
	}
}

func TestDecideHuntsOpponentWithoutHearts(t *testing.T) {
	e := newEngine(quiet(), nil)
	st := gameState(world.NewMap(12, 12), world.Point{X: 5, Y: 5}, world.Point{X: 5, Y: 11}, true, true)
	cmd, ok := e.Decide(st)
	if !ok {
		t.Fatalf("expected a command")
	}
	if move, isMove := cmd.(protocol.MovePlayer); !isMove || move.Dir != world.Bottom {
		t.Fatalf("expected move bottom, got %#v", cmd)
	}
	if e.Mode().Kind != OpponentHunt || e.Mode().Target != (world.Point{X: 5, Y: 11}) {
		t.Fatalf("expected opponent hunt, got %s", e.Mode())
	}
}

func TestDecidePrefersViableHeart(t *testing.T) {
	e := newEngine(quiet(), nil)
	m := world.NewMap(12, 12)
	m.Set(4, 1, world.Heart)
	st := gameState(m, world.Point{X: 1, Y: 1}, world.Point{X: 10, Y: 10}, true, true)
	cmd, ok := e.Decide(st)
	if !ok {
		t.Fatalf("expected a command")
	}
	if e.Mode().Kind != HeartHunt || e.Mode().Target != (world.Point{X: 4, Y: 1}) {
		t.Fatalf("expected heart hunt, got %s", e.Mode())
	}
	if move, isMove := cmd.(protocol.MovePlayer); !isMove || move.Dir != world.Right {
		t.Fatalf("expected move right, got %#v", cmd)
	}
}

func TestDecideChargesWhenTurnsRunOut(t *testing.T) {
	e := newEngine(quiet(), nil)
	m := world.NewMap(12, 12)
	m.Set(4, 1, world.Heart)
	st := gameState(m, world.Point{X: 1, Y: 1}, world.Point{X: 10, Y: 10}, true, true)
	if _, ok := e.Decide(st); !ok || e.Mode().Kind != HeartHunt {
		t.Fatalf("expected heart hunt first, got %s", e.Mode())
	}
	st.TurnsLeft = 10
	if _, ok := e.Decide(st); !ok || e.Mode().Kind != OpponentHunt {
		t.Fatalf("expected pre-emption to opponent hunt, got %s", e.Mode())
	}
}

func TestHeartLastStepBlacklistsCurrentCell(t *testing.T) {
	e := newEngine(quiet(), nil)
	m := world.NewMap(12, 12)
	m.Set(2, 1, world.Heart)
	st := gameState(m, world.Point{X: 1, Y: 1}, world.Point{X: 11, Y: 11}, true, true)
	cmd, ok := e.Decide(st)
	if !ok {
		t.Fatalf("expected a command")
	}
	if move, isMove := cmd.(protocol.MovePlayer); !isMove || move.Dir != world.Right {
		t.Fatalf("expected move right, got %#v", cmd)
	}
	if !e.blacklisted(world.Point{X: 1, Y: 1}) {
		t.Fatalf("expected the cell we left to be blacklisted")
	}
}

func TestOpponentHuntLastStepPutsWall(t *testing.T) {
	e := newEngine(quiet(), nil)
	// The opponent is remembered one cell below but not marked on the map.
	st := gameState(world.NewMap(12, 12), world.Point{X: 5, Y: 5}, world.Point{X: 5, Y: 6}, true, false)
	cmd, ok := e.Decide(st)
	if !ok {
		t.Fatalf("expected a command")
	}
	if wall, isWall := cmd.(protocol.PutWall); !isWall || wall.Dir != world.Bottom {
		t.Fatalf("expected put_wall bottom, got %#v", cmd)
	}
}

func TestOpponentHuntSkipsAreBounded(t *testing.T) {
	tuning := quiet()
	tuning.SkipChance = 1
	tuning.MaxSkips = 2
	e := newEngine(tuning, nil)
	st := gameState(world.NewMap(12, 12), world.Point{X: 5, Y: 5}, world.Point{X: 5, Y: 7}, true, false)

	for i := 0; i < 2; i++ {
		cmd, ok := e.Decide(st)
		if look, isLook := cmd.(protocol.Look); !ok || !isLook || look.Dir != world.Bottom {
			t.Fatalf("tick %d: expected look bottom, got %#v", i, cmd)
		}
	}
	cmd, ok := e.Decide(st)
	if move, isMove := cmd.(protocol.MovePlayer); !ok || !isMove || move.Dir != world.Bottom {
		t.Fatalf("expected a move once skips are exhausted, got %#v", cmd)
	}
}

func TestNoPathReturnsToSearching(t *testing.T) {
	metrics := &countingMetrics{}
	e := newEngine(quiet(), metrics)
	m := walls(world.NewMap(7, 7),
		world.Point{X: 5, Y: 4}, world.Point{X: 4, Y: 5}, world.Point{X: 6, Y: 5}, world.Point{X: 5, Y: 6},
	)
	st := gameState(m, world.Point{X: 1, Y: 1}, world.Point{X: 5, Y: 5}, true, true)
	if cmd, ok := e.Decide(st); ok {
		t.Fatalf("expected no command, got %#v", cmd)
	}
	if e.Mode().Kind != Searching || e.stuck != 1 || metrics.failures != 1 {
		t.Fatalf("expected searching with one failure, got mode=%s stuck=%d failures=%d", e.Mode(), e.stuck, metrics.failures)
	}
}

func TestProbeAimsAtTheOtherHalf(t *testing.T) {
	tuning := quiet()
	tuning.ProbeChance = 1
	e := newEngine(tuning, nil)
	st := gameState(world.NewMap(12, 12), world.Point{X: 1, Y: 1}, world.Point{X: 0, Y: 0}, false, false)
	st.Partial = true
	for i := 0; i < 10; i++ {
		cmd, ok := e.Decide(st)
		if !ok {
			t.Fatalf("expected a probe")
		}
		var dir world.Direction
		switch c := cmd.(type) {
		case protocol.Look:
			dir = c.Dir
		case protocol.Search:
			dir = c.Dir
		default:
			t.Fatalf("expected look or search, got %#v", cmd)
		}
		if dir != world.Right && dir != world.Bottom {
			t.Fatalf("probe from the top-left quarter went %s", dir)
		}
	}
	st.Partial = false
	cmd, ok := e.Decide(st)
	if !ok {
		t.Fatalf("expected a probe under full visibility too")
	}
	switch cmd.(type) {
	case protocol.Look, protocol.Search:
	default:
		t.Fatalf("expected look or search under full visibility, got %#v", cmd)
	}
}

func TestProbeChanceRisesNearTheEnd(t *testing.T) {
	e := newEngine(DefaultTuning(), nil)
	if got := e.probeChance(100); got != e.tuning.ProbeChance {
		t.Fatalf("expected base chance, got %v", got)
	}
	if got := e.probeChance(e.tuning.UrgentTurns); got != e.tuning.UrgentProbeChance {
		t.Fatalf("expected urgent chance, got %v", got)
	}
}

// corridor is a 9x3 board walled above and below row 1.
func corridor() world.Map {
	m := world.NewMap(9, 3)
	for x := 0; x < 9; x++ {
		m.Set(x, 0, world.Wall)
		m.Set(x, 2, world.Wall)
	}
	return m
}

// step applies a move the way the server would: into open cells only,
// eating any heart there.
func step(st *match.GameState, cmd protocol.Command) {
	move, ok := cmd.(protocol.MovePlayer)
	if !ok {
		return
	}
	next := st.Players.Us.Pos.Step(move.Dir)
	if !st.Map.Open(next) {
		return
	}
	st.Map.SetPoint(st.Players.Us.Pos, world.Blank)
	st.Map.SetPoint(next, world.Hot)
	st.Players.Us.Pos = next
}

func TestHeartTrailExpiresInCorridor(t *testing.T) {
	e := newEngine(quiet(), nil)
	m := corridor()
	m.Set(6, 1, world.Heart)
	st := gameState(m, world.Point{X: 3, Y: 1}, world.Point{X: 0, Y: 0}, false, false)

	ate := false
	backWest := false
	for turn := 0; turn < 200 && !backWest; turn++ {
		cmd, _ := e.Decide(st)
		step(&st, cmd)
		if st.Players.Us.Pos == (world.Point{X: 6, Y: 1}) {
			ate = true
		}
		if ate && st.Players.Us.Pos.X < 5 {
			backWest = true
		}
	}
	if !ate {
		t.Fatalf("expected the heart to be eaten")
	}
	if !backWest {
		t.Fatalf("trail cell sealed the corridor: pos=%v blacklist=%v", st.Players.Us.Pos, e.blacklist)
	}
}

func TestTrailExpiresAfterConfiguredTurns(t *testing.T) {
	tuning := quiet()
	tuning.TrailTurns = 2
	e := newEngine(tuning, nil)
	e.turn = 1
	e.rememberTrail(world.Point{X: 4, Y: 4})
	e.remember(world.Point{X: 5, Y: 5})
	e.turn = 3
	e.expire()
	if e.blacklisted(world.Point{X: 4, Y: 4}) {
		t.Fatalf("trail cell should have expired")
	}
	if !e.blacklisted(world.Point{X: 5, Y: 5}) {
		t.Fatalf("placed wall must not expire")
	}
}

func TestEscapeIgnoresBlacklistedOpenCells(t *testing.T) {
	metrics := &countingMetrics{}
	e := newEngine(quiet(), metrics)
	self := world.Point{X: 3, Y: 3}
	for _, n := range []world.Point{{X: 3, Y: 2}, {X: 2, Y: 3}, {X: 4, Y: 3}, {X: 3, Y: 4}} {
		e.rememberTrail(n)
	}
	e.remember(world.Point{X: 3, Y: 2})
	st := gameState(world.NewMap(7, 7), self, world.Point{X: 0, Y: 0}, false, false)

	for turn := 0; turn < 5; turn++ {
		cmd, ok := e.Decide(st)
		if !ok {
			t.Fatalf("turn %d: expected a command", turn)
		}
		if _, isMove := cmd.(protocol.MovePlayer); !isMove {
			t.Fatalf("turn %d: expected a move out of the blacklisted ring, got %#v", turn, cmd)
		}
		step(&st, cmd)
		if st.Players.Us.Pos != self {
			break
		}
	}
	if st.Players.Us.Pos == self {
		t.Fatalf("never left the blacklisted ring")
	}
	if metrics.escapes == 0 {
		t.Fatalf("expected an escape")
	}
	if !e.blacklisted(world.Point{X: 3, Y: 2}) {
		t.Fatalf("escape must keep placed walls")
	}
	for _, p := range []world.Point{{X: 2, Y: 3}, {X: 4, Y: 3}, {X: 3, Y: 4}} {
		if e.blacklisted(p) {
			t.Fatalf("escape should drop trail cell %v", p)
		}
	}
}

func TestBlacklistIsBounded(t *testing.T) {
	tuning := quiet()
	tuning.BlacklistSize = 2
	e := newEngine(tuning, nil)
	e.remember(world.Point{X: 1, Y: 1})
	e.remember(world.Point{X: 2, Y: 2})
	e.remember(world.Point{X: 3, Y: 3})
	if e.blacklisted(world.Point{X: 1, Y: 1}) {
		t.Fatalf("oldest entry should be evicted")
	}
	if !e.blacklisted(world.Point{X: 3, Y: 3}) || len(e.blacklist) != 2 {
		t.Fatalf("unexpected blacklist: %v", e.blacklist)
	}
}

func TestLoadTuning(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(path, []byte("stuck_limit: 9\nskip_chance: 0.1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.StuckLimit != 9 || got.SkipChance != 0.1 {
		t.Fatalf("overrides not applied: %+v", got)
	}
	if got.BlacklistSize != DefaultTuning().BlacklistSize {
		t.Fatalf("defaults should survive a partial file: %+v", got)
	}

	missing, err := LoadTuning(filepath.Join(dir, "absent.yaml"))
	if err != nil || missing != DefaultTuning() {
		t.Fatalf("missing file should yield defaults, got %+v err=%v", missing, err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("probe_chance: 3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadTuning(bad); err == nil {
		t.Fatalf("expected out-of-range probability to be rejected")
	}
}

type fakeSession struct {
	mu        sync.Mutex
	st        match.GameState
	submitted []protocol.Command
	err       error
	// lagging leaves Ready set after a submission, as when the
	// synchronizer has not forwarded the command yet.
	lagging bool
}

var _ ports.GameSession = (*fakeSession)(nil)

func (f *fakeSession) Snapshot() match.GameState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.st.Clone()
}

func (f *fakeSession) Submit(_ context.Context, cmd protocol.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.submitted = append(f.submitted, cmd)
	if !f.lagging {
		f.st.Ready = false
	}
	return nil
}

func (f *fakeSession) grantTurn() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.st.Ready = true
	f.st.Grant++
}

func (f *fakeSession) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

func TestRunSubmitsOncePerGrantedTurn(t *testing.T) {
	session := &fakeSession{st: gameState(world.NewMap(12, 12), world.Point{X: 5, Y: 5}, world.Point{X: 5, Y: 11}, true, true)}
	metrics := &countingMetrics{}
	e := New(session, Config{Tuning: quiet(), Interval: time.Millisecond, Seed: 1, Metrics: metrics})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- e.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for session.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := session.count(); n != 1 {
		t.Fatalf("expected exactly one submission for one granted turn, got %d", n)
	}
	if len(metrics.commands) != 1 || metrics.commands[0] != protocol.PacketMovePlayer {
		t.Fatalf("unexpected command metrics: %v", metrics.commands)
	}
}

func TestRunDecidesOncePerGrantEvenWhileReadyLags(t *testing.T) {
	session := &fakeSession{
		st:      gameState(world.NewMap(12, 12), world.Point{X: 5, Y: 5}, world.Point{X: 5, Y: 11}, true, true),
		lagging: true,
	}
	e := New(session, Config{Tuning: quiet(), Interval: time.Millisecond, Seed: 1})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- e.Run(ctx) }()
	defer func() {
		cancel()
		<-errc
	}()

	waitCount := func(want int) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for session.count() < want && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		time.Sleep(20 * time.Millisecond)
		if n := session.count(); n != want {
			t.Fatalf("expected %d submissions, got %d", want, n)
		}
	}
	waitCount(1)
	session.grantTurn()
	waitCount(2)
}

func TestRunStopsWhenMatchEnds(t *testing.T) {
	st := gameState(world.NewMap(6, 6), world.Point{X: 1, Y: 1}, world.Point{X: 4, Y: 4}, true, true)
	st.Phase = match.Ended(world.SideCold, "timeout")
	e := New(&fakeSession{st: st}, Config{Tuning: quiet(), Interval: time.Millisecond})

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("engine did not stop after the match ended")
	}
}

func TestRunStopsOnGameEndedFromSubmit(t *testing.T) {
	session := &fakeSession{
		st:  gameState(world.NewMap(12, 12), world.Point{X: 5, Y: 5}, world.Point{X: 5, Y: 11}, true, true),
		err: ports.ErrGameEnded,
	}
	e := New(session, Config{Tuning: quiet(), Interval: time.Millisecond})
	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}
}
