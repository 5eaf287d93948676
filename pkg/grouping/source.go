package grouping

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BitPonyLLC/huegroups/pkg/dominant"

	"github.com/pkg/errors"
)

// ImageSource resolves the ordered set of images to group.
type ImageSource interface {
	// Root is the directory image names are reported relative to.
	Root() string
	Images(ctx context.Context) ([]string, error)
}

// DirSource lists the supported image files directly inside a directory.
// Subdirectories and hidden files are skipped.
type DirSource struct {
	Dir string
}

var _ ImageSource = DirSource{} // ensures we conform to the ImageSource interface

func (s DirSource) Root() string {
	return s.Dir
}

func (s DirSource) Images(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidInput, "unable to read %s: %v", s.Dir, err)
	}

	images := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !dominant.IsImageFile(name) {
			continue
		}

		pathname := filepath.Join(s.Dir, name)

		// stat the target so symlinked files are included
		info, err := os.Stat(pathname)
		if err != nil || info.IsDir() {
			continue
		}

		images = append(images, pathname)
	}

	sort.Strings(images)
	return images, nil
}

// RelativeName strips root from pathname, leaving the name an image is
// reported under. It fails when pathname does not live below root.
func RelativeName(root, pathname string) (string, error) {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(pathname))
	if err != nil {
		return "", errors.Wrapf(ErrInvalidInput, "unable to relate %s to %s: %v", pathname, root, err)
	}

	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Wrapf(ErrInvalidInput, "%s is not inside %s", pathname, root)
	}

	return filepath.ToSlash(rel), nil
}
