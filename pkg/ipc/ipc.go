// Package ipc lets a running daemon execute CLI commands on behalf of other
// processes over a unix domain socket. A client sends one command line and
// receives the command's output until the daemon closes the connection.
package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/BitPonyLLC/huegroups/pkg/util"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// ErrPrefix marks output lines written to a command's error stream.
const ErrPrefix = "ERR: "

type IPCServer struct {
	ctx      context.Context
	log      *zerolog.Logger
	conns    sync.Map
	cmd      *cobra.Command
	cmdMutex sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// Start listens on path and executes each received command line with cmd
// until ctx is canceled or Stop is called.
func (ipc *IPCServer) Start(ctx context.Context, log *zerolog.Logger, path string, cmd *cobra.Command) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unable to remove %s: %w", path, err)
	}

	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "unix", path)
	if err != nil {
		return fmt.Errorf("unable to listen on %s: %w", path, err)
	}

	// let anyone talk to us
	err = os.Chmod(path, 0666)
	if err != nil {
		l.Close()
		return fmt.Errorf("unable to change permissions to %s: %w", path, err)
	}

	ipc.ctx = ctx
	ipc.log = log
	ipc.cmd = cmd
	ipc.listener = l

	go func() {
		<-ctx.Done()
		l.Close()
	}()

	ipc.wg.Add(1)
	go func() {
		defer func() {
			util.LogRecover()
			ipc.wg.Done()
		}()

		for {
			conn, err := l.Accept()
			if err != nil {
				if !errors.Is(err, net.ErrClosed) {
					ipc.log.Error().Err(err).Str("path", path).Msg("unable to accept new connection")
				}
				break
			}

			ac := &acceptedConn{conn: conn}
			ipc.wg.Add(1)
			go func() {
				defer ipc.wg.Done()
				ac.processCommand(ipc)
			}()
		}

		// cleanup (our context was canceled)
		ipc.conns.Range(func(key, _ any) bool {
			key.(*acceptedConn).conn.Close()
			return true
		})
	}()

	ipc.log.Debug().Str("path", path).Msg("listening")
	return nil
}

// Stop closes the listener and any open connections, waiting for their
// handlers to return.
func (ipc *IPCServer) Stop() {
	if ipc.listener == nil {
		return
	}

	ipc.listener.Close()
	ipc.conns.Range(func(key, _ any) bool {
		key.(*acceptedConn).conn.Close()
		return true
	})
	ipc.wg.Wait()
}
