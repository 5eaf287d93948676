package grouping

import (
	"context"
	"runtime"

	"github.com/BitPonyLLC/huegroups/pkg/colors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxGroups caps the number of candidate cluster counts swept.
const DefaultMaxGroups = 15

// refitStream keeps the final fit independent of every sweep fit.
const refitStream = 1 << 32

// Clusterer groups per-image colors into an automatically chosen number of
// clusters.
type Clusterer struct {
	MaxGroups        int
	BatchSize        int
	NInit            int
	MaxNoImprovement int
	MaxIter          int
	Workers          int
	Seed             uint64
	Log              *zerolog.Logger
}

// Clustering is the result of Clusterer.Cluster.
type Clustering struct {
	K         int
	Curve     []FitPoint
	Labels    []int
	Centroids []colors.RGB
}

// NewClusterer returns a Clusterer with the default sweep parameters.
func NewClusterer(log *zerolog.Logger, seed uint64) *Clusterer {
	return &Clusterer{
		MaxGroups:        DefaultMaxGroups,
		BatchSize:        DefaultBatchSize,
		NInit:            DefaultNInit,
		MaxNoImprovement: DefaultMaxNoImprovement,
		MaxIter:          DefaultMaxIter,
		Workers:          runtime.NumCPU(),
		Seed:             seed,
		Log:              log,
	}
}

// CandidateRange returns the cluster counts swept for n samples. A single
// sample collapses the range to {1}.
func (c *Clusterer) CandidateRange(n int) (int, int, error) {
	maxGroups := min(c.MaxGroups, n)
	if maxGroups <= 0 {
		return 0, 0, invalidInput("no candidate cluster counts for %d samples (max groups %d)", n, c.MaxGroups)
	}

	return 1, max(1, maxGroups-1), nil
}

// Cluster sweeps the candidate counts, selects one at the knee of the inertia
// curve and refits at that count for the final labels and centroids.
func (c *Clusterer) Cluster(ctx context.Context, samples []colors.RGB) (*Clustering, error) {
	firstK, lastK, err := c.CandidateRange(len(samples))
	if err != nil {
		return nil, err
	}

	points := make([][]float64, len(samples))
	for i, s := range samples {
		points[i] = s.Floats()
	}

	curve, err := c.sweep(ctx, points, firstK, lastK)
	if err != nil {
		return nil, err
	}

	k, err := SelectFromCurve(curve)
	if err != nil {
		return nil, err
	}

	c.logger().Debug().Int("k", k).Int("first", firstK).Int("last", lastK).Msg("selected cluster count")

	fit, err := c.model(k, refitStream).Fit(ctx, points)
	if err != nil {
		return nil, err
	}

	centroids := make([]colors.RGB, len(fit.Centers))
	for i, center := range fit.Centers {
		centroids[i] = colors.FromFloats(center[0], center[1], center[2])
	}

	return &Clustering{K: k, Curve: curve, Labels: fit.Labels, Centroids: centroids}, nil
}

//--------------------------------------------------------------------------------
// private

func (c *Clusterer) sweep(ctx context.Context, points [][]float64, firstK, lastK int) ([]FitPoint, error) {
	curve := make([]FitPoint, lastK-firstK+1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.Workers, 1))

	for k := firstK; k <= lastK; k++ {
		k := k
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			fit, err := c.model(k, uint64(k)).Fit(gctx, points)
			if err != nil {
				return err
			}

			curve[k-firstK] = FitPoint{K: k, Inertia: fit.Inertia}
			c.logger().Trace().Int("k", k).Float64("inertia", fit.Inertia).Msg("fit")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return curve, nil
}

func (c *Clusterer) model(k int, stream uint64) *MiniBatchKMeans {
	return &MiniBatchKMeans{
		K:                k,
		BatchSize:        c.BatchSize,
		NInit:            c.NInit,
		MaxIter:          c.MaxIter,
		MaxNoImprovement: c.MaxNoImprovement,
		Seed:             c.Seed,
		Stream:           stream,
	}
}

func (c *Clusterer) logger() *zerolog.Logger {
	if c.Log == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return c.Log
}
