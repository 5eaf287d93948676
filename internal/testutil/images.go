// Package testutil provides image fixtures shared by the package tests.
package testutil

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/BitPonyLLC/huegroups/pkg/colors"
)

// WriteSolid writes a width x height PNG filled with c into dir.
func WriteSolid(t *testing.T, dir, name string, c colors.RGB, width, height int) string {
	t.Helper()
	return WriteFunc(t, dir, name, width, height, func(int, int) colors.RGB { return c })
}

// WriteSplit writes a PNG whose left half is left and right half is right.
func WriteSplit(t *testing.T, dir, name string, left, right colors.RGB, width, height int) string {
	t.Helper()
	return WriteFunc(t, dir, name, width, height, func(x, _ int) colors.RGB {
		if x < width/2 {
			return left
		}
		return right
	})
}

// WriteFunc writes a PNG whose pixels are produced by at.
func WriteFunc(t *testing.T, dir, name string, width, height int, at func(x, y int) colors.RGB) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := at(x, y)
			img.SetNRGBA(x, y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}

	pathname := filepath.Join(dir, name)
	f, err := os.Create(pathname)
	if err != nil {
		t.Fatalf("unable to create %s: %v", pathname, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("unable to encode %s: %v", pathname, err)
	}

	return pathname
}

// WriteGarbage writes a file with an image extension that no decoder accepts.
func WriteGarbage(t *testing.T, dir, name string) string {
	t.Helper()

	pathname := filepath.Join(dir, name)
	if err := os.WriteFile(pathname, []byte("definitely not an image"), 0o644); err != nil {
		t.Fatalf("unable to write %s: %v", pathname, err)
	}

	return pathname
}
