package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"chaserbot/internal/domain/world"
)

var (
	ErrUnknownPacket = errors.New("unknown packet")
	ErrMalformed     = errors.New("malformed packet")
)

type envelope struct {
	Packet string          `json:"packet"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type joinedRoomWire struct {
	XSize    int    `json:"x_size"`
	YSize    int    `json:"y_size"`
	CoolName string `json:"cool_name"`
	HotName  string `json:"hot_name"`
}

type effectWire struct {
	T string  `json:"t"`
	P string  `json:"p"`
	D *string `json:"d"`
}

type boardWire struct {
	MapData   [][]int     `json:"map_data"`
	CoolScore int         `json:"cool_score"`
	HotScore  int         `json:"hot_score"`
	Turn      int         `json:"turn"`
	Effect    *effectWire `json:"effect"`
}

type recWire struct {
	RecData []int `json:"rec_data"`
}

type resultWire struct {
	Winer string `json:"winer"`
	Info  string `json:"info"`
}

type joinWire struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

// Decode parses one line from the proxy.
func Decode(line []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(bytes.TrimSpace(line), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch env.Packet {
	case PacketJoinedRoom:
		var w joinedRoomWire
		if err := unmarshalData(env, &w); err != nil {
			return nil, err
		}
		if w.XSize <= 0 || w.YSize <= 0 {
			return nil, fmt.Errorf("%w: %s: board size %dx%d", ErrMalformed, env.Packet, w.XSize, w.YSize)
		}
		return JoinedRoom{Width: w.XSize, Height: w.YSize, ColdName: w.CoolName, HotName: w.HotName}, nil
	case PacketNewBoard:
		data, err := decodeBoard(env)
		if err != nil {
			return nil, err
		}
		return NewBoard{data}, nil
	case PacketUpdateBoard:
		data, err := decodeBoard(env)
		if err != nil {
			return nil, err
		}
		return UpdateBoard{data}, nil
	case PacketGetReadyRec, PacketMoveRec, PacketLookRec, PacketSearchRec, PacketPutRec:
		codes, err := decodeRec(env)
		if err != nil {
			return nil, err
		}
		switch env.Packet {
		case PacketGetReadyRec:
			return GetReadyRec{Codes: codes}, nil
		case PacketMoveRec:
			return MoveRec{Codes: codes}, nil
		case PacketLookRec:
			return LookRec{Codes: codes}, nil
		case PacketSearchRec:
			return SearchRec{Codes: codes}, nil
		default:
			return PutRec{Codes: codes}, nil
		}
	case PacketGameResult:
		var w resultWire
		if err := unmarshalData(env, &w); err != nil {
			return nil, err
		}
		winner, err := world.ParseSide(w.Winer)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Packet, err)
		}
		return GameResult{Winner: winner, Info: w.Info}, nil
	case PacketError:
		return ServerError{Message: messageOf(env.Data)}, nil
	case PacketConnectError:
		return ConnectError{Message: messageOf(env.Data)}, nil
	case PacketMatchInit:
		return MatchInit{Raw: append([]byte(nil), env.Data...)}, nil
	case PacketMatchStartCheck:
		return MatchStartCheck{Raw: append([]byte(nil), env.Data...)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPacket, env.Packet)
	}
}

// Encode renders a command as one JSON object without the trailing newline.
func Encode(cmd Command) ([]byte, error) {
	var data any
	switch c := cmd.(type) {
	case PlayerJoin:
		data = joinWire{RoomID: c.Room, Name: c.Name}
	case GetReady:
		return json.Marshal(envelope{Packet: c.Packet()})
	case MovePlayer:
		data = c.Dir.String()
	case Look:
		data = c.Dir.String()
	case Search:
		data = c.Dir.String()
	case PutWall:
		data = c.Dir.String()
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownPacket, cmd)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Packet: cmd.Packet(), Data: raw})
}

func unmarshalData(env envelope, v any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("%w: %s: missing data", ErrMalformed, env.Packet)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, env.Packet, err)
	}
	return nil
}

func decodeBoard(env envelope) (BoardData, error) {
	var w boardWire
	if err := unmarshalData(env, &w); err != nil {
		return BoardData{}, err
	}
	rows := make([][]world.Element, len(w.MapData))
	for y, codes := range w.MapData {
		row := make([]world.Element, len(codes))
		for x, code := range codes {
			e, err := world.ElementFromCode(code)
			if err != nil {
				return BoardData{}, fmt.Errorf("%w: %s: cell (%d,%d): %v", ErrMalformed, env.Packet, x, y, err)
			}
			row[x] = e
		}
		rows[y] = row
	}
	m, err := world.MapFromRows(rows)
	if err != nil {
		return BoardData{}, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Packet, err)
	}
	data := BoardData{Map: m, ColdScore: w.CoolScore, HotScore: w.HotScore, Turn: w.Turn}
	if w.Effect != nil {
		effect, err := decodeEffect(*w.Effect)
		if err != nil {
			return BoardData{}, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Packet, err)
		}
		data.Effect = &effect
	}
	return data, nil
}

func decodeEffect(w effectWire) (world.Effect, error) {
	kind, err := world.ParseEffectKind(w.T)
	if err != nil {
		return world.Effect{}, err
	}
	player, err := world.ParseSide(w.P)
	if err != nil {
		return world.Effect{}, err
	}
	effect := world.Effect{Kind: kind, Player: player}
	if w.D != nil {
		dir, err := world.ParseDirection(*w.D)
		if err != nil {
			return world.Effect{}, err
		}
		effect.Dir, effect.HasDir = dir, true
	}
	return effect, nil
}

// decodeRec accepts a missing or null rec_data as an empty probe.
func decodeRec(env envelope) ([]world.RelElement, error) {
	var w recWire
	if len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Packet, err)
		}
	}
	codes := make([]world.RelElement, len(w.RecData))
	for i, code := range w.RecData {
		r, err := world.RelElementFromCode(code)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: index %d: %v", ErrMalformed, env.Packet, i, err)
		}
		codes[i] = r
	}
	return codes, nil
}

func messageOf(data json.RawMessage) string {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	return string(data)
}
