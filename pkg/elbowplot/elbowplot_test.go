package elbowplot

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/BitPonyLLC/huegroups/pkg/grouping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var curve = []grouping.FitPoint{
	{K: 1, Inertia: 100},
	{K: 2, Inertia: 20},
	{K: 3, Inertia: 15},
	{K: 4, Inertia: 12},
	{K: 5, Inertia: 10},
}

func TestSave(t *testing.T) {
	pathname := filepath.Join(t.TempDir(), "elbow.png")
	require.NoError(t, Save(pathname, curve, 2))

	f, err := os.Open(pathname)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "svg", curve, 2))
	assert.Contains(t, buf.String(), "<svg")
}

func TestSingleCandidate(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, Write(&buf, "png", []grouping.FitPoint{{K: 1, Inertia: 0}}, 1))
}

func TestEmptyCurve(t *testing.T) {
	assert.Error(t, Save(filepath.Join(t.TempDir(), "x.png"), nil, 1))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "png", Format("/tmp/Elbow.PNG"))
	assert.Equal(t, "svg", Format("chart.svg"))
	assert.Equal(t, "", Format("chart"))
}
