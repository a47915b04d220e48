package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const closeGrace = time.Second

// DialBridge connects to a websocket bridge that relays proxy packets, one
// JSON packet per text frame.
func DialBridge(ctx context.Context, url string, header http.Header, log *zap.Logger) (*Conn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial bridge %s: %w", url, err)
	}
	if log != nil {
		log.Info("bridge connected", zap.String("url", url))
	}

	read := func() ([]byte, error) {
		for {
			kind, payload, err := ws.ReadMessage()
			if err != nil {
				return nil, err
			}
			if kind == websocket.TextMessage {
				return payload, nil
			}
		}
	}
	write := func(b []byte) error {
		return ws.WriteMessage(websocket.TextMessage, b)
	}
	closeFn := func() error {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
		return ws.Close()
	}
	return newConn(read, write, closeFn, log), nil
}
