package gamesync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chaserbot/internal/app/ports"
	"chaserbot/internal/domain/match"
	"chaserbot/internal/domain/world"
	"chaserbot/internal/protocol"
)

var (
	ErrHandshake     = errors.New("join handshake violated")
	ErrUnknownPlayer = errors.New("our name is not in the room")
	ErrServer        = errors.New("server reported an error")
)

const (
	DefaultPollInterval = 10 * time.Millisecond
	DefaultDrainPeriod  = 500 * time.Millisecond
)

type Config struct {
	Name string
	Room string
	// View decides how boards and probes are remembered. Nil means full
	// visibility.
	View         world.MapView
	PollInterval time.Duration
	DrainPeriod  time.Duration
	Logger       *zap.Logger
	Sink         ports.EventSink
	Now          func() time.Time
	// MatchID is generated when empty.
	MatchID string
}

// Synchronizer owns the GameState of one match. Only its Run loop mutates
// the state; everyone else reads clones through Snapshot.
type Synchronizer struct {
	transport ports.Transport
	view      world.MapView
	log       *zap.Logger
	sink      ports.EventSink
	now       func() time.Time
	poll      time.Duration
	drain     time.Duration

	matchID string

	mu    sync.RWMutex
	state match.GameState

	tokens chan struct{}

	slotMu sync.Mutex
	slot   protocol.Command
	wake   chan struct{}

	done     chan struct{}
	doneOnce sync.Once
}

var _ ports.GameSession = (*Synchronizer)(nil)

// Join sends the join request and blocks until the room is resolved and the
// first board has arrived.
func Join(ctx context.Context, transport ports.Transport, cfg Config) (*Synchronizer, error) {
	if transport == nil {
		return nil, fmt.Errorf("gamesync: nil transport")
	}
	s := newSynchronizer(transport, cfg)
	if err := transport.Send(ctx, protocol.PlayerJoin{Room: cfg.Room, Name: cfg.Name}); err != nil {
		return nil, fmt.Errorf("gamesync: send join: %w", err)
	}

	var room *protocol.JoinedRoom
	for {
		pkt, err := transport.Recv(ctx)
		if err != nil {
			return nil, fmt.Errorf("gamesync: join: %w", err)
		}
		switch p := pkt.(type) {
		case protocol.JoinedRoom:
			if placeholder(p.ColdName) || placeholder(p.HotName) {
				s.log.Debug("waiting for opponent", zap.String("cold", p.ColdName), zap.String("hot", p.HotName))
				continue
			}
			room = &p
		case protocol.MatchInit, protocol.MatchStartCheck:
			continue
		case protocol.ServerError:
			return nil, fmt.Errorf("%w: %s", ErrServer, p.Message)
		case protocol.ConnectError:
			return nil, fmt.Errorf("%w: connect: %s", ErrServer, p.Message)
		case protocol.NewBoard:
			if room == nil {
				s.log.Debug("board before room assignment, ignored")
				continue
			}
			if err := s.start(*room, cfg, p.BoardData); err != nil {
				return nil, err
			}
			return s, nil
		default:
			if room == nil {
				s.log.Debug("discarding packet before room assignment", zap.String("packet", pkt.Packet()))
				continue
			}
			return nil, fmt.Errorf("%w: unexpected %s while waiting for the first board", ErrHandshake, pkt.Packet())
		}
	}
}

func newSynchronizer(transport ports.Transport, cfg Config) *Synchronizer {
	s := &Synchronizer{
		transport: transport,
		view:      cfg.View,
		log:       cfg.Logger,
		sink:      cfg.Sink,
		now:       cfg.Now,
		poll:      cfg.PollInterval,
		drain:     cfg.DrainPeriod,
		tokens:    make(chan struct{}, 1),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	if s.view == nil {
		s.view = world.FullView{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.poll <= 0 {
		s.poll = DefaultPollInterval
	}
	if s.drain <= 0 {
		s.drain = DefaultDrainPeriod
	}
	return s
}

func placeholder(name string) bool {
	return name == "" || strings.HasPrefix(strings.ToLower(name), "waiting")
}

func (s *Synchronizer) start(room protocol.JoinedRoom, cfg Config, board protocol.BoardData) error {
	if board.Map.Width() != room.Width || board.Map.Height() != room.Height {
		return fmt.Errorf("%w: board is %dx%d, room announced %dx%d", ErrHandshake,
			board.Map.Width(), board.Map.Height(), room.Width, room.Height)
	}
	players, ok := match.Resolve(cfg.Name, room.ColdName, room.HotName)
	if !ok {
		return fmt.Errorf("%w: %q (cold %q, hot %q)", ErrUnknownPlayer, cfg.Name, room.ColdName, room.HotName)
	}
	memory, fix, err := s.view.Initial(board.Map, players.Us.Side)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	players.Us.Pos = fix.Self
	players.Opponent.Pos, players.Opponent.Known = fix.Opponent, fix.Sighted
	players.AssignScores(board.ColdScore, board.HotScore)

	matchID := cfg.MatchID
	if matchID == "" {
		matchID = uuid.NewString()
	}
	state := match.GameState{
		MatchID:   matchID,
		Room:      cfg.Room,
		Phase:     match.Starting(),
		Map:       memory,
		Partial:   s.view.Partial(),
		TurnsLeft: -1,
		Players:   players,
		UpdatedAt: s.now(),
	}
	state.SetTurnsLeft(board.Turn)
	if board.Effect != nil {
		state.Phase, _ = state.Phase.Advance(match.Turn(board.Effect.Player))
	}

	s.matchID = matchID
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.log = s.log.With(zap.String("match_id", matchID), zap.String("room", cfg.Room))
	s.log.Info("joined room",
		zap.String("us", players.Us.Name),
		zap.String("side", players.Us.Side.String()),
		zap.String("opponent", players.Opponent.Name),
		zap.Int("width", room.Width),
		zap.Int("height", room.Height),
		zap.Bool("partial", state.Partial),
	)
	s.record(joinedEvent(state, s.now()))
	s.record(boardEvent(state, protocol.PacketNewBoard, s.now()))
	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *Synchronizer) Snapshot() match.GameState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

func (s *Synchronizer) MatchID() string {
	return s.matchID
}

// Submit waits for a ready token, then places cmd in the outbound slot,
// replacing any command that has not been forwarded yet.
func (s *Synchronizer) Submit(ctx context.Context, cmd protocol.Command) error {
	if cmd == nil {
		return fmt.Errorf("gamesync: nil command")
	}
	select {
	case <-s.done:
		return s.stopReason()
	default:
	}
	select {
	case <-s.done:
		return s.stopReason()
	case <-ctx.Done():
		return ctx.Err()
	case <-s.tokens:
	}
	s.place(cmd)
	return nil
}

// Done is closed when the match has ended or the loop has stopped.
func (s *Synchronizer) Done() <-chan struct{} {
	return s.done
}

func (s *Synchronizer) place(cmd protocol.Command) {
	s.slotMu.Lock()
	s.slot = cmd
	s.slotMu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Synchronizer) take() protocol.Command {
	s.slotMu.Lock()
	defer s.slotMu.Unlock()
	cmd := s.slot
	s.slot = nil
	return cmd
}

func (s *Synchronizer) stop() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *Synchronizer) stopReason() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Phase.IsEnded() {
		return ports.ErrGameEnded
	}
	return ports.ErrTransportClosed
}

func (s *Synchronizer) record(event match.DomainEvent) {
	if s.sink == nil {
		return
	}
	s.sink.Record(s.matchID, event)
}
