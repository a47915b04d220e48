package ports

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// ErrTransportClosed means the proxy or bridge went away. It is fatal.
	ErrTransportClosed = errors.New("transport closed")
	// ErrGameEnded is returned to senders once the match has a result.
	ErrGameEnded = errors.New("game ended")
)
