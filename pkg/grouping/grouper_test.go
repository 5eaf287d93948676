package grouping

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/BitPonyLLC/huegroups/internal/testutil"
	"github.com/BitPonyLLC/huegroups/pkg/colors"
	"github.com/BitPonyLLC/huegroups/pkg/dominant"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRedBlue(t *testing.T) (string, []string, []string) {
	t.Helper()

	dir := t.TempDir()
	reds, blues := []string{}, []string{}
	for i := 0; i < 5; i++ {
		red := fmt.Sprintf("red_%d.png", i)
		blue := fmt.Sprintf("blue_%d.png", i)
		testutil.WriteSolid(t, dir, red, colors.RGB{R: 255}, 64, 48)
		testutil.WriteSolid(t, dir, blue, colors.RGB{B: 255}, 64, 48)
		reds = append(reds, red)
		blues = append(blues, blue)
	}

	return dir, reds, blues
}

func TestGrouper_RedAndBlue(t *testing.T) {
	dir, reds, blues := writeRedBlue(t)

	groups, err := New(nil, Config{Seed: DefaultSeed}).Run(context.Background(), DirSource{Dir: dir})
	require.NoError(t, err)
	require.Len(t, groups, 2)

	byColor := map[colors.RGB][]string{}
	for _, g := range groups {
		byColor[g.Color] = g.Images
	}

	assert.ElementsMatch(t, reds, byColor[colors.RGB{R: 255}])
	assert.ElementsMatch(t, blues, byColor[colors.RGB{B: 255}])
}

func TestGrouper_ReportCarriesCurve(t *testing.T) {
	dir, _, _ := writeRedBlue(t)

	report, err := New(nil, Config{}).RunDetailed(context.Background(), DirSource{Dir: dir})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, dir, report.Root)
	assert.Equal(t, 2, report.K)
	assert.Len(t, report.Curve, 9)
	for _, g := range report.Groups {
		assert.NotEmpty(t, g.Name)
	}
}

func TestGrouper_SingleImage(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteSolid(t, dir, "only.png", colors.RGB{G: 255}, 20, 20)

	groups, err := New(nil, Config{}).Run(context.Background(), DirSource{Dir: dir})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"only.png"}, groups[0].Images)
	assert.Equal(t, colors.RGB{G: 255}, groups[0].Color)
}

func TestGrouper_IdenticalImages(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 7; i++ {
		testutil.WriteSolid(t, dir, fmt.Sprintf("same_%d.png", i), colors.RGB{R: 90, G: 90, B: 200}, 16, 16)
	}

	report, err := New(nil, Config{}).RunDetailed(context.Background(), DirSource{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, 1, report.K)
	require.Len(t, report.Groups, 1)
	assert.Len(t, report.Groups[0].Images, 7)
}

func TestGrouper_Partition(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewPCG(11, 0))

	want := []string{}
	for i := 0; i < 25; i++ {
		c := colors.RGB{R: uint8(rng.IntN(256)), G: uint8(rng.IntN(256)), B: uint8(rng.IntN(256))}
		name := fmt.Sprintf("car_%02d.png", i)
		testutil.WriteSolid(t, dir, name, c, 12, 12)
		want = append(want, name)
	}

	report, err := New(nil, Config{}).RunDetailed(context.Background(), DirSource{Dir: dir})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, report.K, 1)
	assert.LessOrEqual(t, report.K, DefaultMaxGroups-1)

	got := []string{}
	for _, g := range report.Groups {
		assert.NotEmpty(t, g.Images)
		got = append(got, g.Images...)
	}
	sort.Strings(got)
	assert.Equal(t, want, got)
}

func TestGrouper_DeterministicAcrossWorkerCounts(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewPCG(5, 0))
	for i := 0; i < 16; i++ {
		base := colors.RGB{R: uint8(rng.IntN(256)), G: uint8(rng.IntN(256)), B: uint8(rng.IntN(256))}
		testutil.WriteFunc(t, dir, fmt.Sprintf("img_%02d.png", i), 40, 30, func(x, y int) colors.RGB {
			if (x+y)%5 == 0 {
				return colors.Gray
			}
			return base
		})
	}

	run := func(workers int) []VehicleGroup {
		groups, err := New(nil, Config{Workers: workers, Seed: 1234}).Run(context.Background(), DirSource{Dir: dir})
		require.NoError(t, err)
		return groups
	}

	want := run(1)
	for _, workers := range []int{1, 4, 16} {
		if diff := cmp.Diff(want, run(workers)); diff != "" {
			t.Errorf("workers=%d groups mismatch (-want +got):\n%s", workers, diff)
		}
	}
}

func TestGrouper_Errors(t *testing.T) {
	t.Run("empty directory", func(t *testing.T) {
		_, err := New(nil, Config{}).Run(context.Background(), DirSource{Dir: t.TempDir()})
		assert.True(t, errors.Is(err, ErrInvalidInput))
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := New(nil, Config{}).Run(context.Background(), DirSource{Dir: filepath.Join(t.TempDir(), "gone")})
		assert.True(t, errors.Is(err, ErrInvalidInput))
	})

	t.Run("unreadable image", func(t *testing.T) {
		dir := t.TempDir()
		testutil.WriteSolid(t, dir, "good.png", colors.RGB{R: 255}, 8, 8)
		testutil.WriteGarbage(t, dir, "bad.jpg")

		_, err := New(nil, Config{}).Run(context.Background(), DirSource{Dir: dir})
		require.Error(t, err)
		assert.True(t, IsImageReadError(err))
	})

	t.Run("negative max groups", func(t *testing.T) {
		dir, _, _ := writeRedBlue(t)
		_, err := New(nil, Config{MaxGroups: -3}).Run(context.Background(), DirSource{Dir: dir})
		assert.True(t, errors.Is(err, ErrInvalidInput))
	})

	t.Run("canceled", func(t *testing.T) {
		dir, _, _ := writeRedBlue(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		groups, err := New(nil, Config{}).Run(ctx, DirSource{Dir: dir})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, groups)
	})
}

func TestGrouper_ProminentExtractorWiring(t *testing.T) {
	g := New(nil, Config{Extractor: dominant.NewProminentExtractor()})
	assert.IsType(t, &dominant.ProminentExtractor{}, g.cfg.Extractor)

	g = New(nil, Config{})
	assert.IsType(t, &dominant.KMeansExtractor{}, g.cfg.Extractor)
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteSolid(t, dir, "b.png", colors.RGB{}, 2, 2)
	testutil.WriteSolid(t, dir, "a.PNG", colors.RGB{}, 2, 2)
	testutil.WriteSolid(t, dir, ".hidden.png", colors.RGB{}, 2, 2)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o755))

	images, err := DirSource{Dir: dir}.Images(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.PNG"), filepath.Join(dir, "b.png")}, images)
}

func TestRelativeName(t *testing.T) {
	tests := []struct {
		name     string
		root     string
		pathname string
		want     string
		wantErr  bool
	}{
		{"direct child", "/data/job", "/data/job/car.jpg", "car.jpg", false},
		{"trailing slash root", "/data/job/", "/data/job/car.jpg", "car.jpg", false},
		{"nested", "/data/job", "/data/job/a/car.jpg", "a/car.jpg", false},
		{"relative", "job", "job/car.jpg", "car.jpg", false},
		{"outside", "/data/job", "/data/other/car.jpg", "", true},
		{"prefix lookalike", "/data/job", "/data/jobs/car.jpg", "", true},
		{"root itself", "/data/job", "/data/job", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RelativeName(tt.root, tt.pathname)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
