package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"chaserbot/internal/app/ports"
	"chaserbot/internal/protocol"
)

type received struct {
	pkt protocol.Inbound
	err error
}

// Conn moves protocol packets over a framed byte stream. A single reader
// goroutine decodes frames; the first read or decode error is delivered to
// Recv and ends the stream.
type Conn struct {
	log       *zap.Logger
	in        chan received
	writeMu   sync.Mutex
	write     func([]byte) error
	closeFn   func() error
	closed    chan struct{}
	closeOnce sync.Once
	closeErr  error
}

var _ ports.Transport = (*Conn)(nil)

func newConn(read func() ([]byte, error), write func([]byte) error, closeFn func() error, log *zap.Logger) *Conn {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Conn{
		log:     log,
		in:      make(chan received),
		write:   write,
		closeFn: closeFn,
		closed:  make(chan struct{}),
	}
	go c.pump(read)
	return c
}

func (c *Conn) pump(read func() ([]byte, error)) {
	defer close(c.in)
	for {
		frame, err := read()
		if len(bytes.TrimSpace(frame)) > 0 {
			pkt, decodeErr := protocol.Decode(frame)
			if decodeErr != nil {
				c.deliver(received{err: fmt.Errorf("decode %q: %w", bytes.TrimSpace(frame), decodeErr)})
				return
			}
			c.log.Debug("S -> C", zap.String("packet", pkt.Packet()))
			if !c.deliver(received{pkt: pkt}) {
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				err = fmt.Errorf("%w: %v", ports.ErrTransportClosed, err)
			} else {
				err = ports.ErrTransportClosed
			}
			c.deliver(received{err: err})
			return
		}
	}
}

func (c *Conn) deliver(r received) bool {
	select {
	case c.in <- r:
		return true
	case <-c.closed:
		return false
	}
}

func (c *Conn) Recv(ctx context.Context) (protocol.Inbound, error) {
	select {
	case r, ok := <-c.in:
		if !ok {
			return nil, ports.ErrTransportClosed
		}
		return r.pkt, r.err
	case <-c.closed:
		return nil, ports.ErrTransportClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Conn) Send(ctx context.Context, cmd protocol.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-c.closed:
		return ports.ErrTransportClosed
	default:
	}
	b, err := protocol.Encode(cmd)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.write(b); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrTransportClosed, err)
	}
	c.log.Debug("S <- C", zap.String("command", protocol.Describe(cmd)))
	return nil
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.closeFn != nil {
			c.closeErr = c.closeFn()
		}
	})
	return c.closeErr
}
