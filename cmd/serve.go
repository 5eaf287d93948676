package cmd

import (
	"os"

	"github.com/BitPonyLLC/huegroups/pkg/util"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs in the background, executing commands sent by other invocations",
	Long: "Claims the pidfile and listens on the socket. While it runs, group and " +
		"color commands issued elsewhere are forwarded to it and executed here " +
		"at a lowered priority.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		err := pidPath.CheckAndSet()
		if err != nil {
			return fail(9, err)
		}

		nice := viper.GetInt("nice")
		err = util.BeNice(nice)
		if err != nil {
			log.Warn().Err(err).Int("nice", nice).Msg("continuing at normal priority")
		}

		sockPath := viper.GetString("sockpath")
		err = ipcServer.Start(cmd.Context(), &log.Logger, sockPath, rootCmd)
		if err != nil {
			return fail(9, err)
		}

		defer os.Remove(sockPath)

		log.Info().Str("pidpath", pidPath.Path()).Str("sockpath", sockPath).Msg("serving")
		<-cmd.Context().Done()
		log.Info().Msg("stopped serving")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
