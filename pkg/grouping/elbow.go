package grouping

import (
	"math"
)

// FitPoint is the inertia observed for one candidate cluster count.
type FitPoint struct {
	K       int     `json:"k"`
	Inertia float64 `json:"inertia"`
}

// SelectK picks the knee of an inertia curve. scores[i] belongs to the
// candidate count firstK+i and the last score to lastK. A reference line is
// drawn from the first to the last point and the candidate farthest from it
// wins; ties go to the smaller count, so a flat curve yields firstK.
func SelectK(scores []float64, firstK, lastK int) (int, error) {
	if len(scores) == 0 {
		return 0, invalidInput("no fit scores to select from")
	}

	if firstK+len(scores)-1 != lastK {
		return 0, invalidInput("%d scores do not cover candidate counts %d..%d", len(scores), firstK, lastK)
	}

	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return 0, algorithmFailure("inertia for k=%d is %v", firstK+i, s)
		}
	}

	if len(scores) == 1 || scores[len(scores)-1] >= scores[0] {
		// more clusters never tightened the fit
		return firstK, nil
	}

	x1, y1 := float64(firstK), scores[0]
	x2, y2 := float64(lastK), scores[len(scores)-1]
	dy := y2 - y1
	dx := x2 - x1
	denominator := math.Sqrt(dy*dy + dx*dx)

	best := firstK
	bestDist := -1.0
	for i, y0 := range scores {
		x0 := float64(firstK + i)
		dist := math.Abs(dy*x0-dx*y0+x2*y1-y2*x1) / denominator
		if dist > bestDist {
			best = firstK + i
			bestDist = dist
		}
	}

	return best, nil
}

// SelectFromCurve is SelectK over consecutive FitPoints.
func SelectFromCurve(curve []FitPoint) (int, error) {
	if len(curve) == 0 {
		return 0, invalidInput("empty fit curve")
	}

	scores := make([]float64, len(curve))
	for i, p := range curve {
		if p.K != curve[0].K+i {
			return 0, invalidInput("fit curve is not consecutive at k=%d", p.K)
		}
		scores[i] = p.Inertia
	}

	return SelectK(scores, curve[0].K, curve[len(curve)-1].K)
}
