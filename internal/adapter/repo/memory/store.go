package memory

import (
	"context"
	"sync"

	"chaserbot/internal/app/ports"
	"chaserbot/internal/domain/match"
)

type Store struct {
	mu      sync.RWMutex
	matches map[string]ports.MatchRecord
	events  map[string][]match.DomainEvent
}

func NewStore() *Store {
	return &Store{
		matches: make(map[string]ports.MatchRecord),
		events:  make(map[string][]match.DomainEvent),
	}
}

type txKeyType struct{}

var txKey = txKeyType{}

// locked runs fn under the store lock unless ctx already belongs to a
// transaction, which holds the lock for its whole duration.
func (s *Store) locked(ctx context.Context, write bool, fn func()) {
	if ctx.Value(txKey) != nil {
		fn()
		return
	}
	if write {
		s.mu.Lock()
		defer s.mu.Unlock()
	} else {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	fn()
}
