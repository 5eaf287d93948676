package dominant

import (
	"context"
	"sort"

	"github.com/BitPonyLLC/huegroups/pkg/colors"

	"github.com/EdlinOrg/prominentcolor"
)

// ProminentExtractor delegates pixel clustering to prominentcolor (k-means++
// over a resized copy, median centroids) and applies the same gray rejection
// as KMeansExtractor. prominentcolor seeds itself deterministically, so the
// seed is ignored.
type ProminentExtractor struct {
	K    int
	Size uint
}

var _ Extractor = (*ProminentExtractor)(nil) // ensures we conform to the Extractor interface

func NewProminentExtractor() *ProminentExtractor {
	return &ProminentExtractor{K: DefaultK, Size: DefaultWidth}
}

func (e *ProminentExtractor) Extract(ctx context.Context, pathname string, _ uint64) (colors.RGB, error) {
	if err := ctx.Err(); err != nil {
		return colors.RGB{}, err
	}

	img, err := Load(pathname)
	if err != nil {
		return colors.RGB{}, err
	}

	items, err := prominentcolor.KmeansWithAll(e.K, img, prominentcolor.ArgumentNoCropping, e.Size, nil)
	if err != nil {
		return colors.RGB{}, readError(pathname, "unable to extract dominant color: %w", err)
	}

	total := 0
	for _, item := range items {
		total += item.Cnt
	}

	if total == 0 {
		return colors.RGB{}, readError(pathname, "no colors found")
	}

	centroids := make([]Centroid, len(items))
	for i, item := range items {
		centroids[i] = Centroid{
			Color:     colors.RGB{R: uint8(item.Color.R), G: uint8(item.Color.G), B: uint8(item.Color.B)},
			Occupancy: float64(item.Cnt) / float64(total),
		}
	}

	sort.SliceStable(centroids, func(i, j int) bool {
		return centroids[i].Occupancy > centroids[j].Occupancy
	})

	return AwayFromGray(centroids), nil
}
