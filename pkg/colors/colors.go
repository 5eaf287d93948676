// Package colors provides the RGB type shared by the extractor and the grouper
// along with a lookup of human readable color names.
package colors

import (
	"fmt"
	"math"
	"strings"
)

// RGB represents Red Green and Blue values of a color
type RGB struct {
	R uint8 `json:"R"`
	G uint8 `json:"G"`
	B uint8 `json:"B"`
}

// Gray is the neutral reference used to reject background colors.
var Gray = RGB{128, 128, 128}

const rgbHexFormat = "%02X%02X%02X"

// FromFloats rounds each channel to the nearest integer, clamped to [0,255].
func FromFloats(r, g, b float64) RGB {
	return RGB{R: clamp(r), G: clamp(g), B: clamp(b)}
}

// ParseHex accepts "RRGGBB" with or without a leading '#'.
func ParseHex(hex string) (RGB, error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("unable to parse color %q: want 6 hex digits", hex)
	}

	rgb := RGB{}
	n, err := fmt.Sscanf(hex, rgbHexFormat, &rgb.R, &rgb.G, &rgb.B)
	if err != nil || n != 3 {
		return RGB{}, fmt.Errorf("unable to parse color %q: %w", hex, err)
	}

	return rgb, nil
}

// Hex returns a color in HEX format
func (c RGB) Hex() string {
	return fmt.Sprintf(rgbHexFormat, c.R, c.G, c.B)
}

func (c RGB) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.R, c.G, c.B)
}

// Floats returns the channels as a 3-vector.
func (c RGB) Floats() []float64 {
	return []float64{float64(c.R), float64(c.G), float64(c.B)}
}

// Distance is the Euclidean distance between two colors in RGB space.
func (c RGB) Distance(other RGB) float64 {
	dr := float64(c.R) - float64(other.R)
	dg := float64(c.G) - float64(other.G)
	db := float64(c.B) - float64(other.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

//--------------------------------------------------------------------------------
// private

func clamp(v float64) uint8 {
	v = math.Round(v)
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}
