package gamesync

import (
	"time"

	"chaserbot/internal/domain/match"
	"chaserbot/internal/domain/world"
	"chaserbot/internal/protocol"
)

func joinedEvent(st match.GameState, at time.Time) match.DomainEvent {
	return match.DomainEvent{
		Type:       match.EventJoined,
		OccurredAt: at,
		Payload: map[string]any{
			"room":     st.Room,
			"us":       st.Players.Us.Name,
			"opponent": st.Players.Opponent.Name,
			"side":     st.Players.Us.Side.String(),
			"width":    st.Map.Width(),
			"height":   st.Map.Height(),
			"partial":  st.Partial,
		},
	}
}

func boardEvent(st match.GameState, packet string, at time.Time) match.DomainEvent {
	payload := map[string]any{
		"packet":         packet,
		"turns_left":     st.TurnsLeft,
		"score_us":       st.Players.Us.Score,
		"score_opponent": st.Players.Opponent.Score,
		"phase":          string(st.Phase.Kind),
		"self_x":         st.Players.Us.Pos.X,
		"self_y":         st.Players.Us.Pos.Y,
		"opponent_known": st.Players.Opponent.Known,
	}
	if st.Phase.Kind == match.PhaseTurn {
		payload["acting"] = st.Phase.Side.String()
	}
	if st.Players.Opponent.Known {
		payload["opponent_x"] = st.Players.Opponent.Pos.X
		payload["opponent_y"] = st.Players.Opponent.Pos.Y
	}
	return match.DomainEvent{Type: match.EventBoard, OccurredAt: at, Payload: payload}
}

func probeEvent(st match.GameState, packet string, probe world.Probe, at time.Time) match.DomainEvent {
	shape := "area"
	if probe.Shape == world.ShapeRay {
		shape = "ray"
	}
	codes := make([]int, len(probe.Codes))
	for i, c := range probe.Codes {
		codes[i] = int(c)
	}
	return match.DomainEvent{
		Type:       match.EventProbe,
		OccurredAt: at,
		Payload: map[string]any{
			"packet":         packet,
			"shape":          shape,
			"codes":          codes,
			"opponent_known": st.Players.Opponent.Known,
		},
	}
}

func commandEvent(cmd protocol.Command, at time.Time) match.DomainEvent {
	return match.DomainEvent{
		Type:       match.EventCommand,
		OccurredAt: at,
		Payload:    map[string]any{"packet": cmd.Packet(), "command": protocol.Describe(cmd)},
	}
}
