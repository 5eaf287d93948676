package grouping

import (
	"context"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

const (
	DefaultBatchSize        = 1024
	DefaultNInit            = 10
	DefaultMaxIter          = 100
	DefaultMaxNoImprovement = 10
)

// MiniBatchKMeans fits K centers by updating them from random batches of the
// points instead of the full set. NInit independent starts are run and the
// one with the lowest inertia over all points is kept.
type MiniBatchKMeans struct {
	K                int
	BatchSize        int
	NInit            int
	MaxIter          int // passes over the data, in batches
	MaxNoImprovement int // consecutive batches without a better smoothed inertia
	Seed             uint64
	Stream           uint64
}

// Fit is the outcome of a MiniBatchKMeans run.
type Fit struct {
	Centers [][]float64
	Labels  []int
	Inertia float64
}

// Fit clusters points, all of which must share one dimension.
func (m *MiniBatchKMeans) Fit(ctx context.Context, points [][]float64) (*Fit, error) {
	n := len(points)
	if n == 0 {
		return nil, invalidInput("no points to cluster")
	}

	if m.K < 1 || m.K > n {
		return nil, invalidInput("cannot fit %d clusters to %d points", m.K, n)
	}

	nInit := max(m.NInit, 1)

	var best *Fit
	for run := 0; run < nInit; run++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rng := rand.New(rand.NewPCG(m.Seed+uint64(run), m.Stream))
		fit := m.fitOnce(rng, points)
		if math.IsNaN(fit.Inertia) || math.IsInf(fit.Inertia, 0) {
			continue
		}

		if best == nil || fit.Inertia < best.Inertia {
			best = fit
		}
	}

	if best == nil {
		return nil, algorithmFailure("no usable fit for k=%d over %d points", m.K, n)
	}

	return best, nil
}

// Predict returns the index of the center nearest to p.
func (f *Fit) Predict(p []float64) int {
	nearest, _ := nearestCenter(p, f.Centers)
	return nearest
}

//--------------------------------------------------------------------------------
// private

func (m *MiniBatchKMeans) fitOnce(rng *rand.Rand, points [][]float64) *Fit {
	n := len(points)
	batchSize := m.BatchSize
	if batchSize <= 0 || batchSize > n {
		batchSize = min(DefaultBatchSize, n)
	}

	initSize := min(3*batchSize, n)
	initPoints := points
	if initSize < n {
		perm := rng.Perm(n)[:initSize]
		initPoints = make([][]float64, initSize)
		for i, idx := range perm {
			initPoints[i] = points[idx]
		}
	}

	centers := initPlusPlus(rng, initPoints, m.K)
	counts := make([]float64, m.K)
	diff := make([]float64, len(points[0]))

	steps := max(m.MaxIter, 1) * n / batchSize
	alpha := math.Min(1, 2*float64(batchSize)/float64(n+1))
	ewa := math.NaN()
	bestEWA := math.Inf(1)
	noImprovement := 0

	for step := 0; step < steps; step++ {
		batchInertia := 0.0
		for b := 0; b < batchSize; b++ {
			p := points[rng.IntN(n)]
			c, sq := nearestCenter(p, centers)
			batchInertia += sq

			// incremental mean: leaves the center untouched when p sits on it
			counts[c]++
			floats.SubTo(diff, p, centers[c])
			floats.AddScaled(centers[c], 1/counts[c], diff)
		}
		batchInertia /= float64(batchSize)

		if math.IsNaN(ewa) {
			ewa = batchInertia
		} else {
			ewa = ewa*(1-alpha) + batchInertia*alpha
		}

		if ewa < bestEWA {
			bestEWA = ewa
			noImprovement = 0
		} else {
			noImprovement++
		}

		if m.MaxNoImprovement > 0 && noImprovement >= m.MaxNoImprovement {
			break
		}
	}

	labels := make([]int, n)
	inertia := 0.0
	for i, p := range points {
		c, sq := nearestCenter(p, centers)
		labels[i] = c
		inertia += sq
	}

	return &Fit{Centers: centers, Labels: labels, Inertia: inertia}
}

func initPlusPlus(rng *rand.Rand, points [][]float64, k int) [][]float64 {
	centers := make([][]float64, 0, k)
	centers = append(centers, clone(points[rng.IntN(len(points))]))

	distances := make([]float64, len(points))
	for len(centers) < k {
		total := 0.0
		for i, p := range points {
			_, distances[i] = nearestCenter(p, centers)
			total += distances[i]
		}

		if total == 0 {
			// fewer distinct points than clusters
			centers = append(centers, clone(centers[len(centers)-1]))
			continue
		}

		target := rng.Float64() * total
		chosen := len(points) - 1
		cumulative := 0.0
		for i, d := range distances {
			cumulative += d
			if cumulative >= target && d > 0 {
				chosen = i
				break
			}
		}
		centers = append(centers, clone(points[chosen]))
	}

	return centers
}

// nearestCenter returns the closest center and the squared distance to it.
func nearestCenter(p []float64, centers [][]float64) (int, float64) {
	nearest := 0
	best := math.Inf(1)
	for i, c := range centers {
		d := floats.Distance(p, c, 2)
		if d < best {
			best = d
			nearest = i
		}
	}
	return nearest, best * best
}

func clone(p []float64) []float64 {
	c := make([]float64, len(p))
	copy(c, p)
	return c
}
