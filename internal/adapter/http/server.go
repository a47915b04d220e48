package httpadapter

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"go.uber.org/zap"
)

const shutdownTimeout = 2 * time.Second

// Serve runs the API on addr until ctx is done.
func Serve(ctx context.Context, addr string, h Handler, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	s := server.New(
		server.WithHostPorts(addr),
		server.WithExitWaitTime(shutdownTimeout),
		server.WithDisablePrintRoute(true),
	)
	h.RegisterRoutes(s)

	errc := make(chan error, 1)
	go func() { errc <- s.Run() }()
	log.Info("http api listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(sctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return nil
	}
}
