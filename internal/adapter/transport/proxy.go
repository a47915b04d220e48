package transport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"go.uber.org/zap"
)

var ErrNoProxyCommand = errors.New("proxy command is empty")

type ProxyConfig struct {
	Command []string
	Dir     string
	Server  string
	Modern  bool
}

// SpawnProxy starts the proxy subprocess and talks to it over its standard
// streams. The process is killed when the returned Conn is closed or ctx ends.
func SpawnProxy(ctx context.Context, cfg ProxyConfig, log *zap.Logger) (*Conn, error) {
	if len(cfg.Command) == 0 || cfg.Command[0] == "" {
		return nil, ErrNoProxyCommand
	}
	if log == nil {
		log = zap.NewNop()
	}
	cmd := exec.CommandContext(ctx, cfg.Command[0], cfg.Command[1:]...)
	cmd.Dir = cfg.Dir
	cmd.Env = append(os.Environ(), "SERVER="+cfg.Server)
	if cfg.Modern {
		cmd.Env = append(cmd.Env, "MODERN=1")
	}
	cmd.Stderr = zap.NewStdLog(log.Named("proxy")).Writer()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("proxy stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("proxy stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start proxy: %w", err)
	}
	log.Info("proxy started", zap.Strings("command", cfg.Command), zap.String("server", cfg.Server), zap.Int("pid", cmd.Process.Pid))

	stop := func() error {
		_ = stdin.Close()
		_ = cmd.Process.Kill()
		err := cmd.Wait()
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil
		}
		return err
	}
	return NewLineConn(stdout, stdin, stop, log), nil
}
