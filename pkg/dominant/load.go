package dominant

import (
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// IsImageFile reports whether the pathname carries an extension with a
// registered decoder.
func IsImageFile(pathname string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(pathname))]
}

// Load decodes the image stored at pathname.
func Load(pathname string) (image.Image, error) {
	f, err := os.Open(pathname)
	if err != nil {
		return nil, readError(pathname, "unable to open: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, readError(pathname, "unable to decode: %w", err)
	}

	if img.Bounds().Empty() {
		return nil, readError(pathname, "no pixels")
	}

	return img, nil
}

// Pixels shrinks img to width x height with nearest-neighbor sampling (no
// blended colors are introduced) and flattens the result into RGB triplets.
func Pixels(img image.Image, width, height int) ([][3]float64, error) {
	if img.Bounds().Empty() || width <= 0 || height <= 0 {
		return nil, errors.New("no pixels")
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	pixels := make([][3]float64, 0, width*height)
	for i := 0; i+3 < len(dst.Pix); i += 4 {
		pixels = append(pixels, [3]float64{
			float64(dst.Pix[i]),
			float64(dst.Pix[i+1]),
			float64(dst.Pix[i+2]),
		})
	}

	return pixels, nil
}
