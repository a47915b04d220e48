package transport

import (
	"bufio"
	"io"

	"go.uber.org/zap"
)

// NewLineConn frames packets as newline-terminated JSON, the format the
// proxy speaks on its stdin and stdout.
func NewLineConn(r io.Reader, w io.Writer, closeFn func() error, log *zap.Logger) *Conn {
	br := bufio.NewReader(r)
	read := func() ([]byte, error) {
		return br.ReadBytes('\n')
	}
	write := func(b []byte) error {
		_, err := w.Write(append(b, '\n'))
		return err
	}
	return newConn(read, write, closeFn, log)
}
