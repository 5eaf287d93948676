// Package elbowplot charts the inertia curve of a cluster count sweep with
// the selected count marked.
package elbowplot

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"github.com/BitPonyLLC/huegroups/pkg/grouping"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	Width  = 8 * vg.Inch
	Height = 5 * vg.Inch
)

var (
	curveColor  = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	chordColor  = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
	chosenColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
)

// New builds the chart of curve with k highlighted.
func New(curve []grouping.FitPoint, k int) (*plot.Plot, error) {
	if len(curve) == 0 {
		return nil, fmt.Errorf("unable to plot an empty curve")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Inertia by group count (selected k=%d)", k)
	p.X.Label.Text = "Groups (k)"
	p.Y.Label.Text = "Inertia"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(curve))
	for i, fp := range curve {
		pts[i] = plotter.XY{X: float64(fp.K), Y: fp.Inertia}
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("unable to plot curve: %w", err)
	}
	line.Color = curveColor
	line.Width = vg.Points(1.5)
	points.Color = curveColor
	points.Shape = draw.CircleGlyph{}
	p.Add(line, points)
	p.Legend.Add("inertia", line, points)

	if len(pts) > 1 {
		chord, err := plotter.NewLine(plotter.XYs{pts[0], pts[len(pts)-1]})
		if err != nil {
			return nil, fmt.Errorf("unable to plot chord: %w", err)
		}
		chord.Color = chordColor
		chord.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(chord)
	}

	for _, fp := range curve {
		if fp.K != k {
			continue
		}

		chosen, err := plotter.NewScatter(plotter.XYs{{X: float64(fp.K), Y: fp.Inertia}})
		if err != nil {
			return nil, fmt.Errorf("unable to mark k=%d: %w", k, err)
		}
		chosen.Color = chosenColor
		chosen.Shape = draw.RingGlyph{}
		chosen.Radius = vg.Points(6)
		p.Add(chosen)
		p.Legend.Add(fmt.Sprintf("k=%d", k), chosen)
	}

	p.Legend.Top = true
	return p, nil
}

// Save writes the chart to pathname in the format named by its extension
// (png, jpg, svg, pdf, ...).
func Save(pathname string, curve []grouping.FitPoint, k int) error {
	p, err := New(curve, k)
	if err != nil {
		return err
	}

	if err = p.Save(Width, Height, pathname); err != nil {
		return fmt.Errorf("unable to save %s: %w", pathname, err)
	}

	return nil
}

// Write renders the chart to w in format.
func Write(w io.Writer, format string, curve []grouping.FitPoint, k int) error {
	p, err := New(curve, k)
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(Width, Height, strings.TrimPrefix(strings.ToLower(format), "."))
	if err != nil {
		return fmt.Errorf("unable to render %s: %w", format, err)
	}

	_, err = wt.WriteTo(w)
	return err
}

// Format returns the chart format implied by pathname.
func Format(pathname string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(pathname)), ".")
}
