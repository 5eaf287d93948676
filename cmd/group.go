package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BitPonyLLC/huegroups/buildinfo"
	"github.com/BitPonyLLC/huegroups/pkg/archive"
	"github.com/BitPonyLLC/huegroups/pkg/dominant"
	"github.com/BitPonyLLC/huegroups/pkg/elbowplot"
	"github.com/BitPonyLLC/huegroups/pkg/grouping"
	"github.com/BitPonyLLC/huegroups/pkg/report"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	extractorKMeans    = "kmeans"
	extractorProminent = "prominent"
)

var groupOutput string
var groupPlot string
var groupLocal bool

var groupCmd = &cobra.Command{
	Use:   "group <directory|archive|url|drive-id>",
	Short: "Groups vehicle images by the dominant color of their paint",
	Long: "Groups the images found in a directory, a local archive, an archive URL or a " +
		"Google Drive file id. The number of groups is chosen at the elbow of the " +
		"inertia curve.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !groupLocal && pidPath.IsRunning() && !pidPath.IsOurs() {
			return sendViaIPC(cmd, forwardArgs(cmd, args, "output", "plot"))
		}

		return runGroup(cmd, args[0])
	},
}

func init() {
	groupCmd.Flags().String("format", report.FormatJSON, "report format: "+strings.Join(report.Formats, ", "))
	viper.BindPFlag("group.format", groupCmd.Flags().Lookup("format"))

	groupCmd.Flags().Int("max-groups", grouping.DefaultMaxGroups, "upper bound of the candidate group counts")
	viper.BindPFlag("group.max-groups", groupCmd.Flags().Lookup("max-groups"))

	groupCmd.Flags().Int("workers", runtime.NumCPU(), "number of images processed concurrently")
	viper.BindPFlag("group.workers", groupCmd.Flags().Lookup("workers"))

	groupCmd.Flags().Uint64("seed", grouping.DefaultSeed, "seed of every random choice, for reproducible groups")
	viper.BindPFlag("group.seed", groupCmd.Flags().Lookup("seed"))

	groupCmd.Flags().String("extractor", extractorKMeans, "dominant color extractor: kmeans, prominent")
	viper.BindPFlag("group.extractor", groupCmd.Flags().Lookup("extractor"))

	groupCmd.Flags().StringVarP(&groupOutput, "output", "o", "", "write the report to this file instead of stdout")
	groupCmd.Flags().StringVar(&groupPlot, "plot", "", "save a chart of the inertia curve (png, svg, pdf, ...)")
	groupCmd.Flags().BoolVar(&groupLocal, "local", false, "run here even when a serve process is available")

	viper.SetDefault("archive.dir", "")
	viper.SetDefault("archive.timeout", archive.DefaultTimeout)

	rootCmd.AddCommand(groupCmd)
}

//--------------------------------------------------------------------------------
// private

func runGroup(cmd *cobra.Command, ref string) error {
	ctx := cmd.Context()

	extractor, err := newExtractor(viper.GetString("group.extractor"))
	if err != nil {
		return fail(5, err)
	}

	fetcher := &archive.Fetcher{
		Dir:       viper.GetString("archive.dir"),
		Timeout:   viper.GetDuration("archive.timeout"),
		UserAgent: buildinfo.App.Name + "/" + buildinfo.App.Version,
		Log:       &log.Logger,
	}

	dir, release, err := fetcher.Fetch(ctx, ref)
	defer release()
	if err != nil {
		return fail(6, "unable to resolve %s: %w", ref, err)
	}

	grouper := grouping.New(&log.Logger, grouping.Config{
		MaxGroups: viper.GetInt("group.max-groups"),
		Workers:   viper.GetInt("group.workers"),
		Seed:      viper.GetUint64("group.seed"),
		Extractor: extractor,
	})

	started := time.Now()
	rpt, err := grouper.RunDetailed(ctx, grouping.DirSource{Dir: dir})
	if err != nil {
		return fail(groupFailureCode(err), "unable to group %s: %w", ref, err)
	}

	// report the reference the caller gave, not a working directory
	rpt.Root = ref

	log.Info().Str("ref", ref).Int("groups", len(rpt.Groups)).
		Dur("elapsed", time.Since(started)).Msg("grouping complete")

	if groupPlot != "" {
		err = elbowplot.Save(groupPlot, rpt.Curve, rpt.K)
		if err != nil {
			return fail(10, err)
		}
	}

	return writeReport(cmd, rpt)
}

func writeReport(cmd *cobra.Command, rpt *grouping.Report) error {
	var w io.Writer = cmd.OutOrStdout()

	if groupOutput != "" {
		f, err := os.Create(groupOutput)
		if err != nil {
			return fail(10, "unable to create %s: %w", groupOutput, err)
		}
		defer f.Close()
		w = f
	}

	err := report.Write(w, viper.GetString("group.format"), rpt, termWidth())
	if err != nil {
		return fail(10, err)
	}

	return nil
}

func newExtractor(name string) (dominant.Extractor, error) {
	switch name {
	case extractorKMeans, "":
		return dominant.NewKMeansExtractor(), nil
	case extractorProminent:
		return dominant.NewProminentExtractor(), nil
	}

	return nil, fmt.Errorf("unknown extractor %q (expected %s or %s)", name, extractorKMeans, extractorProminent)
}

func groupFailureCode(err error) int {
	switch {
	case grouping.IsImageReadError(err):
		return 7
	case errors.Is(err, grouping.ErrInvalidInput):
		return 6
	case errors.Is(err, grouping.ErrAlgorithm):
		return 8
	}
	return failureCode
}

// forwardArgs rebuilds the invocation for a serve process, which runs with a
// different working directory: arguments naming existing paths and the
// pathFlags are made absolute. Only flags given explicitly are forwarded so
// the serve process's configuration applies to the rest.
func forwardArgs(cmd *cobra.Command, args []string, pathFlags ...string) []string {
	fwd := []string{cmd.Name()}

	for _, arg := range args {
		if _, err := os.Stat(arg); err == nil {
			arg = absPath(arg)
		}
		fwd = append(fwd, arg)
	}

	cmd.LocalFlags().Visit(func(f *pflag.Flag) {
		if f.Name == "local" {
			return
		}

		val := f.Value.String()
		for _, name := range pathFlags {
			if f.Name == name && val != "" {
				val = absPath(val)
			}
		}

		fwd = append(fwd, "--"+f.Name+"="+val)
	})

	return fwd
}

func absPath(pathname string) string {
	abs, err := filepath.Abs(pathname)
	if err != nil {
		return pathname
	}
	return abs
}

func termWidth() int {
	if tw == nil {
		return 80
	}
	return tw.Width()
}
