package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Client issues one command to an IPCServer and relays its output.
type Client struct {
	// RespCB receives each output line that is not an error line.
	RespCB func(line string)
}

// Send connects to the server listening on path, issues msg and relays the
// output until the server closes the connection. Lines the command wrote to
// its error stream are returned together as an error.
func (c *Client) Send(ctx context.Context, path, msg string) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return fmt.Errorf("unable to connect to %s: %w", path, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	_, err = conn.Write([]byte(msg + "\n"))
	if err != nil {
		return fmt.Errorf("unable to send message to %s: %w", path, err)
	}

	errLines := []string{}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if rest, ok := strings.CutPrefix(line, ErrPrefix); ok {
			errLines = append(errLines, rest)
			continue
		}

		if c.RespCB != nil {
			c.RespCB(line)
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err = scanner.Err(); err != nil {
		return fmt.Errorf("unable to read response from %s: %w", path, err)
	}

	if len(errLines) > 0 {
		return errors.New(strings.Join(errLines, "\n"))
	}

	return nil
}
