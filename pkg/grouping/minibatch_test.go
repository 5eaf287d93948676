package grouping

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blobs returns perCenter noisy points around each center.
func blobs(seed uint64, perCenter int, spread float64, centers ...[]float64) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, 0))
	points := [][]float64{}
	for _, c := range centers {
		for i := 0; i < perCenter; i++ {
			p := make([]float64, len(c))
			for d := range c {
				p[d] = c[d] + (rng.Float64()*2-1)*spread
			}
			points = append(points, p)
		}
	}
	return points
}

func newTestModel(k int) *MiniBatchKMeans {
	return &MiniBatchKMeans{
		K:                k,
		BatchSize:        DefaultBatchSize,
		NInit:            DefaultNInit,
		MaxIter:          DefaultMaxIter,
		MaxNoImprovement: DefaultMaxNoImprovement,
		Seed:             7,
	}
}

func TestMiniBatchKMeans_SeparatesBlobs(t *testing.T) {
	points := blobs(1, 20, 5, []float64{250, 10, 10}, []float64{10, 10, 250})

	fit, err := newTestModel(2).Fit(context.Background(), points)
	require.NoError(t, err)
	require.Len(t, fit.Centers, 2)
	require.Len(t, fit.Labels, len(points))

	first := fit.Labels[0]
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, fit.Labels[i])
		assert.NotEqual(t, first, fit.Labels[20+i])
	}

	assert.InDelta(t, 250, fit.Centers[first][0], 10)
	assert.Equal(t, first, fit.Predict([]float64{240, 0, 0}))
}

func TestMiniBatchKMeans_Deterministic(t *testing.T) {
	points := blobs(2, 15, 40, []float64{200, 50, 50}, []float64{50, 200, 50}, []float64{50, 50, 200})

	a, err := newTestModel(3).Fit(context.Background(), points)
	require.NoError(t, err)
	b, err := newTestModel(3).Fit(context.Background(), points)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestMiniBatchKMeans_IdenticalPoints(t *testing.T) {
	points := make([][]float64, 8)
	for i := range points {
		points[i] = []float64{12, 34, 56}
	}

	for k := 1; k <= len(points); k++ {
		fit, err := newTestModel(k).Fit(context.Background(), points)
		require.NoError(t, err)
		assert.Zero(t, fit.Inertia, "k=%d", k)
	}
}

func TestMiniBatchKMeans_InertiaMostlyNonIncreasing(t *testing.T) {
	points := blobs(3, 10, 30, []float64{220, 30, 30}, []float64{30, 220, 30}, []float64{30, 30, 220}, []float64{200, 200, 200})

	prev := -1.0
	first := 0.0
	for k := 1; k <= 10; k++ {
		fit, err := newTestModel(k).Fit(context.Background(), points)
		require.NoError(t, err)

		if k == 1 {
			first = fit.Inertia
		} else {
			// stochastic fits may wobble a little
			assert.LessOrEqual(t, fit.Inertia, prev+0.05*first, "k=%d", k)
		}
		prev = fit.Inertia
	}
}

func TestMiniBatchKMeans_Errors(t *testing.T) {
	_, err := newTestModel(1).Fit(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = newTestModel(3).Fit(context.Background(), [][]float64{{1, 2, 3}})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = newTestModel(0).Fit(context.Background(), [][]float64{{1, 2, 3}})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = newTestModel(1).Fit(ctx, [][]float64{{1, 2, 3}})
	assert.ErrorIs(t, err, context.Canceled)
}
