package cmd

import (
	"strings"

	"github.com/BitPonyLLC/huegroups/pkg/ipc"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var shellEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")

// sendViaIPC asks the serve process to execute args, relaying its output.
func sendViaIPC(cmd *cobra.Command, args []string) error {
	msg := quoteArgs(args)
	log.Debug().Int("pid", pidPath.Getpid()).Str("cmd", msg).Msg("sending")

	client := &ipc.Client{
		RespCB: func(line string) {
			cmd.Println(line)
		},
	}

	err := client.Send(cmd.Context(), viper.GetString("sockpath"), msg)
	if err != nil {
		return fail(11, "serve process %d: %w", pidPath.Getpid(), err)
	}

	return nil
}

// quoteArgs joins args into a line that shellwords splits back into args.
func quoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = `"` + shellEscaper.Replace(arg) + `"`
	}
	return strings.Join(quoted, " ")
}
