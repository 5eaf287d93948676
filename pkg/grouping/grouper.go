// Package grouping clusters vehicle images by the dominant color of their
// paint. Each image is reduced to one representative color, the colors are
// clustered for every candidate group count, the count at the knee of the
// inertia curve is chosen and the images are partitioned at that count.
package grouping

import (
	"context"
	"runtime"
	"time"

	"github.com/BitPonyLLC/huegroups/pkg/colors"
	"github.com/BitPonyLLC/huegroups/pkg/dominant"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

// DefaultSeed is used when no seed is configured.
const DefaultSeed = 42

// VehicleGroup is one color cluster and the images assigned to it.
type VehicleGroup struct {
	ID     int        `json:"id"`
	Color  colors.RGB `json:"color"`
	Name   string     `json:"name"`
	Images []string   `json:"images"`
}

// Report carries the groups along with how the group count was chosen.
type Report struct {
	RunID  string         `json:"run_id"`
	Root   string         `json:"root"`
	K      int            `json:"k"`
	Curve  []FitPoint     `json:"curve"`
	Groups []VehicleGroup `json:"groups"`
}

// Config holds the tunables of a Grouper. Zero values select defaults.
type Config struct {
	MaxGroups int
	Workers   int
	Seed      uint64
	Extractor dominant.Extractor
}

// Grouper coordinates extraction and clustering for one image source per
// run. Runs share no mutable state.
type Grouper struct {
	cfg Config
	log *zerolog.Logger
}

// New creates a Grouper, filling unset configuration with defaults.
func New(log *zerolog.Logger, cfg Config) *Grouper {
	if cfg.MaxGroups == 0 {
		cfg.MaxGroups = DefaultMaxGroups
	}

	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	if cfg.Extractor == nil {
		cfg.Extractor = dominant.NewKMeansExtractor()
	}

	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	return &Grouper{cfg: cfg, log: log}
}

// Run groups the images of src and returns the groups ordered by id.
func (g *Grouper) Run(ctx context.Context, src ImageSource) ([]VehicleGroup, error) {
	report, err := g.RunDetailed(ctx, src)
	if err != nil {
		return nil, err
	}

	return report.Groups, nil
}

// RunDetailed is Run, also returning the inertia curve and the chosen count.
// A failed or canceled run returns no partial result.
func (g *Grouper) RunDetailed(ctx context.Context, src ImageSource) (*Report, error) {
	started := time.Now()
	runID := uuid.New().String()
	rlog := g.log.With().Str("run", runID).Str("root", src.Root()).Logger()

	pathnames, err := src.Images(ctx)
	if err != nil {
		return nil, err
	}

	if len(pathnames) == 0 {
		return nil, invalidInput("no images found in %s", src.Root())
	}

	names := make([]string, len(pathnames))
	for i, pathname := range pathnames {
		names[i], err = RelativeName(src.Root(), pathname)
		if err != nil {
			return nil, err
		}
	}

	rlog.Info().Int("images", len(pathnames)).Msg("extracting colors")

	samples, err := g.Extract(ctx, &rlog, pathnames)
	if err != nil {
		return nil, err
	}

	clusterer := NewClusterer(&rlog, g.cfg.Seed)
	clusterer.MaxGroups = g.cfg.MaxGroups
	clusterer.Workers = g.cfg.Workers

	clustering, err := clusterer.Cluster(ctx, samples)
	if err != nil {
		return nil, err
	}

	groups := assemble(clustering, names)

	rlog.Info().Int("k", clustering.K).Int("groups", len(groups)).
		Dur("elapsed", time.Since(started)).Msg("grouped")

	return &Report{
		RunID:  runID,
		Root:   src.Root(),
		K:      clustering.K,
		Curve:  clustering.Curve,
		Groups: groups,
	}, nil
}

// Extract computes the representative color of every image on a bounded
// pool of workers. Each worker writes only its own index of the result, and
// the first failure cancels the remaining extractions.
func (g *Grouper) Extract(ctx context.Context, log *zerolog.Logger, pathnames []string) ([]colors.RGB, error) {
	samples := make([]colors.RGB, len(pathnames))
	done := atomic.NewInt64(0)

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Workers)

	for i, pathname := range pathnames {
		i, pathname := i, pathname
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}

			c, err := g.cfg.Extractor.Extract(ectx, pathname, g.cfg.Seed+uint64(i))
			if err != nil {
				return errors.Wrapf(err, "unable to extract color of %s", pathname)
			}

			samples[i] = c
			log.Trace().Str("path", pathname).Str("color", c.Hex()).
				Int64("done", done.Inc()).Msg("extracted")
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return samples, nil
}

//--------------------------------------------------------------------------------
// private

func assemble(clustering *Clustering, names []string) []VehicleGroup {
	members := make([][]string, len(clustering.Centroids))
	for i, label := range clustering.Labels {
		members[label] = append(members[label], names[i])
	}

	groups := make([]VehicleGroup, 0, len(members))
	for id, images := range members {
		if len(images) == 0 {
			// only possible when duplicated colors leave a center unused
			continue
		}

		color := clustering.Centroids[id]
		groups = append(groups, VehicleGroup{
			ID:     id,
			Color:  color,
			Name:   colors.Name(color),
			Images: images,
		})
	}

	return groups
}
