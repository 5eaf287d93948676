package cmd

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var quitCmd = &cobra.Command{
	Use:   "quit",
	Short: "Tells the serve process to quit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !pidPath.IsRunning() {
			return errors.New("no serve process found")
		}

		if pidPath.IsOurs() {
			log.Info().Msg("received request to quit")
			cmd.Println("quitting")
			cancelFunc()
			return nil
		}

		return sendViaIPC(cmd, []string{cmd.Name()})
	},
}

func init() {
	rootCmd.AddCommand(quitCmd)
}
