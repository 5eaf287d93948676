package colors

import (
	"bufio"
	_ "embed"
	"math"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog/log"
)

//go:embed colornames.csv
var colorNamesCSV string

type namedColor struct {
	name string
	rgb  RGB
	lab  colorful.Color
}

var namesOnce sync.Once
var names []namedColor

// Name returns the closest known color name using perceptual (CIE Lab)
// distance. An empty string means no names could be loaded.
func Name(c RGB) string {
	namesOnce.Do(loadEmbeddedNames)

	target := toColorful(c)
	best := ""
	bestDist := math.MaxFloat64
	for _, nc := range names {
		d := target.DistanceLab(nc.lab)
		if d < bestDist {
			best = nc.name
			bestDist = d
		}
	}

	return best
}

// EachName invokes cb with every known color name and its value.
func EachName(cb func(name string, value RGB)) {
	namesOnce.Do(loadEmbeddedNames)

	for _, nc := range names {
		cb(nc.name, nc.rgb)
	}
}

//--------------------------------------------------------------------------------
// private

func loadEmbeddedNames() {
	firstLine := true
	scanner := bufio.NewScanner(strings.NewReader(colorNamesCSV))
	for scanner.Scan() {
		if firstLine {
			firstLine = false // ignore csv header
			continue
		}

		line := scanner.Text()
		columns := strings.Split(line, ",")
		if len(columns) < 2 {
			log.Warn().Str("line", line).Int("len", len(columns)).Msg("ignoring line from embedded colors")
			continue
		}

		rgb, err := ParseHex(columns[1])
		if err != nil {
			log.Warn().Err(err).Str("line", line).Msg("ignoring line from embedded colors")
			continue
		}

		names = append(names, namedColor{
			name: strings.ToLower(columns[0]),
			rgb:  rgb,
			lab:  toColorful(rgb),
		})
	}
}

func toColorful(c RGB) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}
