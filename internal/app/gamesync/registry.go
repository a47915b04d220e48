package gamesync

import (
	"sync/atomic"

	"chaserbot/internal/app/ports"
)

// Registry publishes the running synchronizer to readers that start before
// the handshake finishes, such as the HTTP API.
type Registry struct {
	current atomic.Pointer[Synchronizer]
}

func (r *Registry) Set(s *Synchronizer) { r.current.Store(s) }

func (r *Registry) Current() (ports.GameSession, bool) {
	s := r.current.Load()
	if s == nil {
		return nil, false
	}
	return s, true
}
