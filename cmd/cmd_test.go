package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/BitPonyLLC/huegroups/internal/testutil"
	"github.com/BitPonyLLC/huegroups/pkg/colors"
	"github.com/BitPonyLLC/huegroups/pkg/dominant"
	"github.com/BitPonyLLC/huegroups/pkg/report"

	"github.com/mattn/go-shellwords"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	for _, c := range rootCmd.Commands() {
		c.SetOut(&out)
		c.SetErr(&out)
	}

	base := []string{"--pidpath", filepath.Join(t.TempDir(), "test.pid"), "--log-level", "warn"}
	rootCmd.SetArgs(append(args, base...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestQuoteArgs(t *testing.T) {
	args := []string{"group", "/data/my cars/job.zip", `say "hi"`, `back\slash`, "$HOME", "--format=text"}

	parsed, err := shellwords.Parse(quoteArgs(args))
	require.NoError(t, err)
	assert.Equal(t, args, parsed)
}

func TestNewExtractor(t *testing.T) {
	e, err := newExtractor("")
	require.NoError(t, err)
	assert.IsType(t, &dominant.KMeansExtractor{}, e)

	e, err = newExtractor("prominent")
	require.NoError(t, err)
	assert.IsType(t, &dominant.ProminentExtractor{}, e)

	_, err = newExtractor("median")
	assert.Error(t, err)
}

func TestForwardArgs(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)

	require.NoError(t, groupCmd.ParseFlags([]string{"--output", "out.json", "--seed", "7", "--local"}))
	defer groupCmd.Flags().Set("output", "")
	defer groupCmd.Flags().Set("local", "false")

	got := forwardArgs(groupCmd, []string{dir, "1AbCdEfGhIjKlMnOp"}, "output", "plot")

	assert.Equal(t, "group", got[0])
	assert.Equal(t, dir, got[1])
	assert.Equal(t, "1AbCdEfGhIjKlMnOp", got[2])
	assert.Contains(t, got, "--output="+filepath.Join(wd, "out.json"))
	assert.Contains(t, got, "--seed=7")
	assert.NotContains(t, got, "--local=true")
}

func TestGroupCommand(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 4; i++ {
		testutil.WriteSolid(t, dir, fmt.Sprintf("red_%d.png", i), colors.RGB{R: 250, G: 10, B: 10}, 32, 24)
		testutil.WriteSolid(t, dir, fmt.Sprintf("white_%d.png", i), colors.RGB{R: 245, G: 245, B: 245}, 32, 24)
	}

	outDir := t.TempDir()
	output := filepath.Join(outDir, "groups.json")
	plot := filepath.Join(outDir, "elbow.png")

	_, err := execute(t, "group", dir, "--local", "--output", output, "--plot", plot, "--workers", "2")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	var resp report.Response
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Len(t, resp.VehicleGroups, 2)
	assert.FileExists(t, plot)
}

func TestGroupCommandEmptyDirectory(t *testing.T) {
	_, err := execute(t, "group", t.TempDir(), "--local")
	assert.Error(t, err)
	assert.Equal(t, 6, failureCode)
	failureCode = 1
}

func TestColorCommand(t *testing.T) {
	dir := t.TempDir()
	pathname := testutil.WriteSolid(t, dir, "blue.png", colors.RGB{B: 255}, 16, 16)

	out, err := execute(t, "color", pathname)
	require.NoError(t, err)
	assert.Contains(t, out, pathname+" = #0000FF rgb(0,0,255)")
}

func TestDump(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, dump("name", &buf))
	assert.Equal(t, "huegroups\n", buf.String())

	buf.Reset()
	require.NoError(t, dump("colors", &buf))
	assert.Contains(t, buf.String(), "#000000")

	assert.Error(t, dump("nonsense", &buf))
}
