package cmd

import (
	"github.com/BitPonyLLC/huegroups/pkg/colors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var colorExtractor string

var colorCmd = &cobra.Command{
	Use:   "color <image>...",
	Short: "Prints the dominant color of each image",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if pidPath.IsRunning() && !pidPath.IsOurs() {
			return sendViaIPC(cmd, forwardArgs(cmd, args))
		}

		name := colorExtractor
		if name == "" {
			name = viper.GetString("group.extractor")
		}

		extractor, err := newExtractor(name)
		if err != nil {
			return fail(5, err)
		}

		seed := viper.GetUint64("group.seed")
		for i, arg := range args {
			c, err := extractor.Extract(cmd.Context(), arg, seed+uint64(i))
			if err != nil {
				return fail(13, "can't determine dominant color of %s: %w", arg, err)
			}

			cmd.Printf("%s = #%s rgb%s %s\n", arg, c.Hex(), c, colors.Name(c))
		}

		return nil
	},
}

func init() {
	colorCmd.Flags().StringVar(&colorExtractor, "extractor", "", "dominant color extractor: kmeans, prominent (default from config)")
	rootCmd.AddCommand(colorCmd)
}
