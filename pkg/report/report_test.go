package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/BitPonyLLC/huegroups/pkg/colors"
	"github.com/BitPonyLLC/huegroups/pkg/grouping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *grouping.Report {
	return &grouping.Report{
		RunID: "run-1",
		Root:  "/data/job",
		K:     2,
		Curve: []grouping.FitPoint{{K: 1, Inertia: 100}, {K: 2, Inertia: 0}},
		Groups: []grouping.VehicleGroup{
			{ID: 0, Color: colors.RGB{R: 255}, Name: "red", Images: []string{"red_1.jpg", "red_2.jpg"}},
			{ID: 1, Color: colors.RGB{B: 255}, Name: "jet blue", Images: []string{"blue_1.jpg"}},
		},
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sampleReport().Groups))

	want := `{"vehicle_groups":[
		{"color":{"R":255,"G":0,"B":0},"images":"red_1.jpg, red_2.jpg"},
		{"color":{"R":0,"G":0,"B":255},"images":"blue_1.jpg"}]}`
	assert.JSONEq(t, want, buf.String())
}

func TestJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, nil))
	assert.JSONEq(t, `{"vehicle_groups":[]}`, buf.String())
}

func TestDetailed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Detailed(&buf, sampleReport()))

	var got grouping.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 2, got.K)
	assert.Len(t, got.Curve, 2)
	assert.Equal(t, []string{"blue_1.jpg"}, got.Groups[1].Images)
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, "/data/job", sampleReport().Groups, 80))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "2 vehicle groups in /data/job\n"), out)
	assert.Contains(t, out, "Red  #FF0000  rgb(255, 0, 0)  2 images")
	assert.Contains(t, out, "Jet Blue  #0000FF  rgb(0, 0, 255)  1 image\n")
	assert.Contains(t, out, "    red_1.jpg red_2.jpg")
}

func TestText_Wraps(t *testing.T) {
	images := []string{}
	for i := 0; i < 30; i++ {
		images = append(images, "vehicle_image.jpg")
	}

	var buf bytes.Buffer
	groups := []grouping.VehicleGroup{{Color: colors.RGB{}, Name: "black", Images: images}}
	require.NoError(t, Text(&buf, "job", groups, 60))

	for _, line := range strings.Split(buf.String(), "\n") {
		assert.LessOrEqual(t, len(line), 60, line)
	}
}

func TestWrite(t *testing.T) {
	for _, format := range Formats {
		var buf bytes.Buffer
		assert.NoError(t, Write(&buf, format, sampleReport(), 80), format)
		assert.NotEmpty(t, buf.String())
	}

	assert.Error(t, Write(&bytes.Buffer{}, "yaml", sampleReport(), 80))
}
