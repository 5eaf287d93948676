package ipc

import (
	"bufio"
	"net"
	"strings"

	"github.com/BitPonyLLC/huegroups/pkg/util"

	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type acceptedConn struct {
	conn net.Conn
}

func (ac *acceptedConn) processCommand(parent *IPCServer) {
	parent.conns.Store(ac, ac)
	defer func() {
		util.LogRecover()
		parent.conns.Delete(ac)
		ac.conn.Close()
		parent.log.Trace().Msg("client disconnected")
	}()

	parent.log.Trace().Msg("client connected")

	reader := bufio.NewReader(ac.conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		parent.log.Err(err).Msg("unable to read command from client")
		return
	}

	line = strings.TrimSpace(line)
	clog := parent.log.With().Str("cmd", line).Logger()

	outWriter := &ConnWriter{conn: ac.conn}
	errWriter := &ConnWriter{conn: ac.conn, prefix: ErrPrefix}

	args, err := shellwords.Parse(line)
	if err != nil || len(args) == 0 {
		errWriter.Writeln("unable to parse command: %s", line)
		return
	}

	// the command tree is shared, so only one command runs at a time
	parent.cmdMutex.Lock()
	defer parent.cmdMutex.Unlock()

	parent.cmd.SetOut(outWriter)
	parent.cmd.SetErr(errWriter)
	for _, c := range parent.cmd.Commands() {
		c.SetOut(outWriter)
		c.SetErr(errWriter)
	}

	resetFlags(parent.cmd)

	clog.Debug().Msg("executing")
	parent.cmd.SetArgs(args)
	err = parent.cmd.ExecuteContext(parent.ctx)
	if err != nil {
		// cobra has already reported it on the error writer
		clog.Err(err).Msg("command failed")
	}

	if outWriter.err != nil {
		clog.Err(outWriter.err).Msg("output writer failed")
	}

	if errWriter.err != nil {
		clog.Err(errWriter.err).Msg("error writer failed")
	}
}

// resetFlags returns every flag of the tree to its default so values given to
// one command do not leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}

	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
