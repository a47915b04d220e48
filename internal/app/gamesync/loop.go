package gamesync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"chaserbot/internal/domain/match"
	"chaserbot/internal/domain/world"
	"chaserbot/internal/protocol"
)

type received struct {
	packet protocol.Inbound
	err    error
}

// Run drives the match until it ends, the context is cancelled or the
// transport fails. Each wake applies at most one inbound packet and then
// tries to forward the pending command. After a result the loop keeps
// reading for the drain period without applying anything and returns nil.
func (s *Synchronizer) Run(ctx context.Context) error {
	defer s.stop()

	if err := s.transport.Send(ctx, protocol.GetReady{}); err != nil {
		return fmt.Errorf("gamesync: send get_ready: %w", err)
	}

	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	inbound := make(chan received)
	go s.read(readCtx, inbound)

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	var drained <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-drained:
			return nil
		case r := <-inbound:
			if r.err != nil {
				if drained != nil {
					s.log.Debug("transport closed while draining", zap.Error(r.err))
					return nil
				}
				return fmt.Errorf("gamesync: recv: %w", r.err)
			}
			if drained != nil {
				s.log.Debug("ignoring packet after result", zap.String("packet", r.packet.Packet()))
				continue
			}
			ended, err := s.apply(ctx, r.packet)
			if err != nil {
				return err
			}
			if ended {
				s.stop()
				drained = time.After(s.drain)
				continue
			}
		case <-s.wake:
		case <-ticker.C:
		}
		if drained != nil {
			continue
		}
		if err := s.forward(ctx); err != nil {
			return err
		}
	}
}

func (s *Synchronizer) read(ctx context.Context, out chan<- received) {
	for {
		pkt, err := s.transport.Recv(ctx)
		select {
		case out <- received{packet: pkt, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

// apply reconciles one packet into the state and reports whether the match
// has ended.
func (s *Synchronizer) apply(ctx context.Context, pkt protocol.Inbound) (bool, error) {
	switch p := pkt.(type) {
	case protocol.GameResult:
		s.finish(p)
		return true, nil
	case protocol.NewBoard:
		return false, s.applyBoard(ctx, p.Packet(), p.BoardData)
	case protocol.UpdateBoard:
		return false, s.applyBoard(ctx, p.Packet(), p.BoardData)
	case protocol.GetReadyRec:
		s.applyProbe(p.Packet(), world.AreaProbe(p.Codes), false)
		s.grant()
		select {
		case s.tokens <- struct{}{}:
		default:
		}
	case protocol.MoveRec:
		s.applyProbe(p.Packet(), world.AreaProbe(p.Codes), true)
	case protocol.PutRec:
		s.applyProbe(p.Packet(), world.AreaProbe(p.Codes), true)
	case protocol.LookRec:
		probe := world.AreaProbe(p.Codes)
		if effect := s.currentEffect(); effect != nil && effect.HasDir {
			probe = world.ShiftedAreaProbe(effect.Dir, p.Codes)
		}
		s.applyProbe(p.Packet(), probe, true)
	case protocol.SearchRec:
		effect := s.currentEffect()
		if effect == nil || !effect.HasDir {
			s.log.Warn("search result without a direction, ignored")
			s.clearEffect()
			return false, nil
		}
		s.applyProbe(p.Packet(), world.RayProbe(effect.Dir, p.Codes), true)
	case protocol.ServerError:
		return false, fmt.Errorf("%w: %s", ErrServer, p.Message)
	case protocol.ConnectError:
		return false, fmt.Errorf("%w: connect: %s", ErrServer, p.Message)
	case protocol.JoinedRoom, protocol.MatchInit, protocol.MatchStartCheck:
		s.log.Debug("ignoring lobby packet", zap.String("packet", pkt.Packet()))
	default:
		return false, fmt.Errorf("gamesync: unhandled packet %T", pkt)
	}
	return false, nil
}

func (s *Synchronizer) applyBoard(ctx context.Context, packet string, board protocol.BoardData) error {
	now := s.now()
	s.mu.Lock()
	st := &s.state
	if board.Map.Width() != st.Map.Width() || board.Map.Height() != st.Map.Height() {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s is %dx%d, map is %dx%d", ErrHandshake, packet,
			board.Map.Width(), board.Map.Height(), st.Map.Width(), st.Map.Height())
	}
	ours := st.Players.Us.Side
	memory, fix := s.view.MergeBoard(st.Map, board.Map, ours, st.Players.Fix())
	st.Map = memory
	st.Players.Us.Correct(fix.Self, true)
	st.Players.Opponent.Correct(fix.Opponent, fix.Sighted)
	st.Players.AssignScores(board.ColdScore, board.HotScore)
	st.SetTurnsLeft(board.Turn)
	st.Effect = board.Effect
	opponentActed := false
	if board.Effect != nil {
		st.Phase, _ = st.Phase.Advance(match.Turn(board.Effect.Player))
		opponentActed = board.Effect.Player != ours
	}
	st.UpdatedAt = now
	event := boardEvent(*st, packet, now)
	s.mu.Unlock()

	s.record(event)
	if !opponentActed {
		return nil
	}
	s.setReady(false)
	select {
	case <-s.tokens:
	default:
	}
	if err := s.transport.Send(ctx, protocol.GetReady{}); err != nil {
		return fmt.Errorf("gamesync: send get_ready: %w", err)
	}
	return nil
}

func (s *Synchronizer) applyProbe(packet string, probe world.Probe, consumeEffect bool) {
	now := s.now()
	s.mu.Lock()
	st := &s.state
	fix := s.view.MergeProbe(st.Map, probe, st.Players.Us.Side, st.Players.Fix())
	st.Players.Opponent.Pos, st.Players.Opponent.Known = fix.Opponent, fix.Sighted
	if consumeEffect {
		st.Effect = nil
	}
	st.UpdatedAt = now
	event := probeEvent(*st, packet, probe, now)
	s.mu.Unlock()
	s.record(event)
}

func (s *Synchronizer) grant() {
	s.mu.Lock()
	s.state.Ready = true
	s.state.Grant++
	s.mu.Unlock()
}

func (s *Synchronizer) setReady(ready bool) {
	s.mu.Lock()
	s.state.Ready = ready
	s.mu.Unlock()
}

func (s *Synchronizer) currentEffect() *world.Effect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Effect == nil {
		return nil
	}
	e := *s.state.Effect
	return &e
}

func (s *Synchronizer) clearEffect() {
	s.mu.Lock()
	s.state.Effect = nil
	s.mu.Unlock()
}

func (s *Synchronizer) finish(p protocol.GameResult) {
	now := s.now()
	s.mu.Lock()
	s.state.Phase, _ = s.state.Phase.Advance(match.Ended(p.Winner, p.Info))
	s.state.UpdatedAt = now
	st := s.state
	s.mu.Unlock()

	result := match.Result{
		MatchID:       st.MatchID,
		Room:          st.Room,
		Us:            st.Players.Us.Name,
		Opponent:      st.Players.Opponent.Name,
		Won:           p.Winner == st.Players.Us.Side,
		Reason:        p.Info,
		ScoreUs:       st.Players.Us.Score,
		ScoreOpponent: st.Players.Opponent.Score,
		EndedAt:       now,
	}
	s.log.Info("match ended",
		zap.String("winner", p.Winner.String()),
		zap.Bool("won", result.Won),
		zap.String("reason", p.Info),
		zap.Int("score_us", result.ScoreUs),
		zap.Int("score_opponent", result.ScoreOpponent),
	)
	if s.sink != nil {
		s.sink.Finish(result)
	}
}

// forward sends the pending command if the server has granted a turn.
// Moves are predicted locally; probes remember their direction so the
// coming result can be placed.
func (s *Synchronizer) forward(ctx context.Context) error {
	// Only the Run goroutine writes Ready, so it can read it unlocked.
	if !s.state.Ready {
		return nil
	}
	cmd := s.take()
	if cmd == nil {
		return nil
	}

	s.mu.Lock()
	st := &s.state
	st.Ready = false
	switch c := cmd.(type) {
	case protocol.MovePlayer:
		next := st.Players.Us.Pos.Step(c.Dir)
		if st.Map.InBounds(next) {
			st.Players.Us.Predict(next)
		}
	case protocol.Look:
		st.Effect = &world.Effect{Kind: world.EffectAroundSide, Player: st.Players.Us.Side, Dir: c.Dir, HasDir: true}
	case protocol.Search:
		st.Effect = &world.Effect{Kind: world.EffectDirection, Player: st.Players.Us.Side, Dir: c.Dir, HasDir: true}
	}
	s.mu.Unlock()

	if err := s.transport.Send(ctx, cmd); err != nil {
		return fmt.Errorf("gamesync: send %s: %w", cmd.Packet(), err)
	}
	s.log.Debug("command forwarded", zap.String("command", protocol.Describe(cmd)))
	s.record(commandEvent(cmd, s.now()))
	return nil
}
