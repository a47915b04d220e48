package protocol

import "chaserbot/internal/domain/world"

// Inbound is a packet sent by the server. The set of implementations is
// closed; consumers switch over the concrete types.
type Inbound interface {
	Packet() string
	inbound()
}

// Command is a packet sent by the client.
type Command interface {
	Packet() string
	command()
}

const (
	PacketJoinedRoom      = "joined_room"
	PacketNewBoard        = "new_board"
	PacketUpdateBoard     = "updata_board"
	PacketGetReadyRec     = "get_ready_rec"
	PacketMoveRec         = "move_rec"
	PacketLookRec         = "look_rec"
	PacketSearchRec       = "search_rec"
	PacketPutRec          = "put_rec"
	PacketGameResult      = "game_result"
	PacketError           = "error"
	PacketConnectError    = "connect_error"
	PacketMatchInit       = "match_init_rec"
	PacketMatchStartCheck = "match_start_check_rec"

	PacketPlayerJoin = "player_join"
	PacketGetReady   = "get_ready"
	PacketMovePlayer = "move_player"
	PacketLook       = "look"
	PacketSearch     = "search"
	PacketPutWall    = "put_wall"
)

// JoinedRoom assigns board dimensions and player names. Names may be
// placeholders until the second player arrives.
type JoinedRoom struct {
	Width    int
	Height   int
	ColdName string
	HotName  string
}

// BoardData is the payload shared by new_board and updata_board.
type BoardData struct {
	Map       world.Map
	ColdScore int
	HotScore  int
	Turn      int
	Effect    *world.Effect
}

type NewBoard struct{ BoardData }

type UpdateBoard struct{ BoardData }

type GetReadyRec struct{ Codes []world.RelElement }

type MoveRec struct{ Codes []world.RelElement }

type LookRec struct{ Codes []world.RelElement }

type SearchRec struct{ Codes []world.RelElement }

type PutRec struct{ Codes []world.RelElement }

type GameResult struct {
	Winner world.Side
	Info   string
}

type ServerError struct{ Message string }

type ConnectError struct{ Message string }

// MatchInit and MatchStartCheck are lobby notices; their payload is kept
// verbatim.
type MatchInit struct{ Raw []byte }

type MatchStartCheck struct{ Raw []byte }

func (JoinedRoom) Packet() string      { return PacketJoinedRoom }
func (NewBoard) Packet() string        { return PacketNewBoard }
func (UpdateBoard) Packet() string     { return PacketUpdateBoard }
func (GetReadyRec) Packet() string     { return PacketGetReadyRec }
func (MoveRec) Packet() string         { return PacketMoveRec }
func (LookRec) Packet() string         { return PacketLookRec }
func (SearchRec) Packet() string       { return PacketSearchRec }
func (PutRec) Packet() string          { return PacketPutRec }
func (GameResult) Packet() string      { return PacketGameResult }
func (ServerError) Packet() string     { return PacketError }
func (ConnectError) Packet() string    { return PacketConnectError }
func (MatchInit) Packet() string       { return PacketMatchInit }
func (MatchStartCheck) Packet() string { return PacketMatchStartCheck }

func (JoinedRoom) inbound()      {}
func (NewBoard) inbound()        {}
func (UpdateBoard) inbound()     {}
func (GetReadyRec) inbound()     {}
func (MoveRec) inbound()         {}
func (LookRec) inbound()         {}
func (SearchRec) inbound()       {}
func (PutRec) inbound()          {}
func (GameResult) inbound()      {}
func (ServerError) inbound()     {}
func (ConnectError) inbound()    {}
func (MatchInit) inbound()       {}
func (MatchStartCheck) inbound() {}

type PlayerJoin struct {
	Room string
	Name string
}

type GetReady struct{}

type MovePlayer struct{ Dir world.Direction }

// Look probes the 3x3 block next to the player in Dir.
type Look struct{ Dir world.Direction }

// Search probes the nine cells in a line from the player in Dir.
type Search struct{ Dir world.Direction }

type PutWall struct{ Dir world.Direction }

func (PlayerJoin) Packet() string { return PacketPlayerJoin }
func (GetReady) Packet() string   { return PacketGetReady }
func (MovePlayer) Packet() string { return PacketMovePlayer }
func (Look) Packet() string       { return PacketLook }
func (Search) Packet() string     { return PacketSearch }
func (PutWall) Packet() string    { return PacketPutWall }

func (PlayerJoin) command() {}
func (GetReady) command()   {}
func (MovePlayer) command() {}
func (Look) command()       {}
func (Search) command()     {}
func (PutWall) command()    {}

// Describe renders a command for logs.
func Describe(cmd Command) string {
	switch c := cmd.(type) {
	case MovePlayer:
		return c.Packet() + ":" + c.Dir.String()
	case Look:
		return c.Packet() + ":" + c.Dir.String()
	case Search:
		return c.Packet() + ":" + c.Dir.String()
	case PutWall:
		return c.Packet() + ":" + c.Dir.String()
	case PlayerJoin:
		return c.Packet() + ":" + c.Room
	default:
		return cmd.Packet()
	}
}
