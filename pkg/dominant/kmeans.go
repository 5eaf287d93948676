package dominant

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/BitPonyLLC/huegroups/pkg/colors"
)

// Centroid is one pixel cluster found in an image.
type Centroid struct {
	Color     colors.RGB
	Occupancy float64 // fraction of pixels assigned, 0..1
}

// pixelKMeans is a plain Lloyd iteration with a single seeded k-means++
// start. It is intentionally approximate: only a coarse estimate of the
// dominant colors is needed.
type pixelKMeans struct {
	k       int
	maxIter int
	rng     *rand.Rand
}

// fit returns k centroids ordered by occupancy, most occupied first.
func (km *pixelKMeans) fit(pixels [][3]float64) []Centroid {
	centers := km.initPlusPlus(pixels)
	assignments := make([]int, len(pixels))
	for i := range assignments {
		assignments[i] = -1
	}

	for iter := 0; iter < km.maxIter; iter++ {
		changed := 0
		for i, p := range pixels {
			nearest := nearestCenter(p, centers)
			if assignments[i] != nearest {
				assignments[i] = nearest
				changed++
			}
		}

		if changed == 0 {
			break
		}

		centers = km.recalculate(pixels, assignments)
	}

	// final assignment against the last centers
	counts := make([]int, km.k)
	for _, p := range pixels {
		counts[nearestCenter(p, centers)]++
	}

	result := make([]Centroid, km.k)
	for i, c := range centers {
		result[i] = Centroid{
			Color:     colors.FromFloats(c[0], c[1], c[2]),
			Occupancy: float64(counts[i]) / float64(len(pixels)),
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Occupancy > result[j].Occupancy
	})

	return result
}

func (km *pixelKMeans) initPlusPlus(pixels [][3]float64) [][3]float64 {
	centers := make([][3]float64, 0, km.k)
	centers = append(centers, pixels[km.rng.IntN(len(pixels))])

	distances := make([]float64, len(pixels))
	for len(centers) < km.k {
		total := 0.0
		for i, p := range pixels {
			distances[i] = sqDist(p, centers[nearestCenter(p, centers)])
			total += distances[i]
		}

		if total == 0 {
			// every pixel already sits on a center
			centers = append(centers, centers[len(centers)-1])
			continue
		}

		target := km.rng.Float64() * total
		chosen := len(pixels) - 1
		cumulative := 0.0
		for i, d := range distances {
			cumulative += d
			if cumulative >= target && d > 0 {
				chosen = i
				break
			}
		}
		centers = append(centers, pixels[chosen])
	}

	return centers
}

func (km *pixelKMeans) recalculate(pixels [][3]float64, assignments []int) [][3]float64 {
	sums := make([][3]float64, km.k)
	counts := make([]int, km.k)
	for i, p := range pixels {
		c := assignments[i]
		sums[c][0] += p[0]
		sums[c][1] += p[1]
		sums[c][2] += p[2]
		counts[c]++
	}

	centers := make([][3]float64, km.k)
	for i := range centers {
		if counts[i] == 0 {
			// empty cluster: reseed from a random pixel
			centers[i] = pixels[km.rng.IntN(len(pixels))]
			continue
		}
		n := float64(counts[i])
		centers[i] = [3]float64{sums[i][0] / n, sums[i][1] / n, sums[i][2] / n}
	}

	return centers
}

func nearestCenter(p [3]float64, centers [][3]float64) int {
	nearest := 0
	best := math.MaxFloat64
	for i, c := range centers {
		d := sqDist(p, c)
		if d < best {
			best = d
			nearest = i
		}
	}
	return nearest
}

func sqDist(a, b [3]float64) float64 {
	d0 := a[0] - b[0]
	d1 := a[1] - b[1]
	d2 := a[2] - b[2]
	return d0*d0 + d1*d1 + d2*d2
}
