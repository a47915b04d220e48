package ports

import (
	"context"

	"chaserbot/internal/domain/match"
	"chaserbot/internal/protocol"
)

// Transport carries packets to and from the game server. Recv blocks until a
// packet arrives; any error it returns is fatal.
type Transport interface {
	Send(ctx context.Context, cmd protocol.Command) error
	Recv(ctx context.Context) (protocol.Inbound, error)
	Close() error
}

// GameSession is what the decision engine and read-only consumers see of a
// running match.
type GameSession interface {
	Snapshot() match.GameState
	Submit(ctx context.Context, cmd protocol.Command) error
}

// EventSink receives every applied match event.
type EventSink interface {
	Record(matchID string, event match.DomainEvent)
	Finish(result match.Result)
}
