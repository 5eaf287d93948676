// Package dominant determines the single representative color of a vehicle
// image, preferring the paint over neutral road or background colors.
package dominant

import (
	"context"
	"math/rand/v2"

	"github.com/BitPonyLLC/huegroups/pkg/colors"
)

// Extractor returns the representative color of one image. The seed makes
// any random initialization reproducible.
type Extractor interface {
	Extract(ctx context.Context, pathname string, seed uint64) (colors.RGB, error)
}

const (
	DefaultWidth   = 55
	DefaultHeight  = 44
	DefaultK       = 4
	DefaultMaxIter = 12
)

// pixelStream separates pixel clustering draws from other users of a seed.
const pixelStream = 0x70697865

// KMeansExtractor clusters the pixels of a small nearest-neighbor thumbnail
// and picks the most distinctive of the two most common colors.
type KMeansExtractor struct {
	Width   int
	Height  int
	K       int
	MaxIter int
}

var _ Extractor = (*KMeansExtractor)(nil) // ensures we conform to the Extractor interface

// NewKMeansExtractor uses a 55x44 thumbnail, 4 clusters and 12 iterations.
func NewKMeansExtractor() *KMeansExtractor {
	return &KMeansExtractor{
		Width:   DefaultWidth,
		Height:  DefaultHeight,
		K:       DefaultK,
		MaxIter: DefaultMaxIter,
	}
}

func (e *KMeansExtractor) Extract(ctx context.Context, pathname string, seed uint64) (colors.RGB, error) {
	if err := ctx.Err(); err != nil {
		return colors.RGB{}, err
	}

	img, err := Load(pathname)
	if err != nil {
		return colors.RGB{}, err
	}

	pixels, err := Pixels(img, e.Width, e.Height)
	if err != nil {
		return colors.RGB{}, &ImageReadError{Path: pathname, Err: err}
	}

	centroids := e.Centroids(pixels, seed)
	return AwayFromGray(centroids), nil
}

// Centroids clusters pixels and returns the centroids ordered by occupancy.
func (e *KMeansExtractor) Centroids(pixels [][3]float64, seed uint64) []Centroid {
	if len(pixels) == 0 {
		return nil
	}

	km := &pixelKMeans{
		k:       e.K,
		maxIter: e.MaxIter,
		rng:     rand.New(rand.NewPCG(seed, pixelStream)),
	}

	return km.fit(pixels)
}

// AwayFromGray looks at the two most occupied centroids and returns the one
// farther from neutral gray. The most common color is frequently road,
// shadow or backdrop, so the more saturated runner-up usually wins. Ties
// keep the more occupied centroid. centroids must be sorted by occupancy.
func AwayFromGray(centroids []Centroid) colors.RGB {
	switch len(centroids) {
	case 0:
		return colors.Gray
	case 1:
		return centroids[0].Color
	}

	first, second := centroids[0].Color, centroids[1].Color
	if second.Distance(colors.Gray) > first.Distance(colors.Gray) {
		return second
	}
	return first
}
