package ipc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// ConnWriter is an io.Writer that will relay any bytes written to it into the
// associated connection, prefixing every line when a prefix is set.
type ConnWriter struct {
	conn    net.Conn
	prefix  string
	err     error
	midLine bool
}

var _ io.Writer = (*ConnWriter)(nil) // ensures we conform to the io.Writer interface

// Write will write bytes to the connection.
func (cw *ConnWriter) Write(p []byte) (int, error) {
	out := p
	if cw.prefix != "" {
		out = cw.prefixLines(p)
	}

	_, err := cw.conn.Write(out)
	if err != nil {
		if errors.Is(err, syscall.EPIPE) {
			// client is gone: don't write this to errors, but do pass it along to caller
			return 0, err
		}

		cw.err = err
		return 0, err
	}

	return len(p), nil
}

// Writeln will write a formatted message to the connection.
func (cw *ConnWriter) Writeln(format string, args ...any) {
	cw.Write([]byte(fmt.Sprintf(format+"\n", args...)))
}

func (cw *ConnWriter) prefixLines(p []byte) []byte {
	var buf bytes.Buffer
	for len(p) > 0 {
		if !cw.midLine {
			buf.WriteString(cw.prefix)
		}

		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			buf.Write(p)
			cw.midLine = true
			break
		}

		buf.Write(p[:i+1])
		p = p[i+1:]
		cw.midLine = false
	}
	return buf.Bytes()
}
