package grouping

import (
	"github.com/BitPonyLLC/huegroups/pkg/dominant"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidInput marks an empty image set or a degenerate candidate range.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlgorithm marks a clustering fit that produced no usable result.
	ErrAlgorithm = errors.New("clustering failed")
)

// IsImageReadError reports whether err was caused by an unreadable image.
func IsImageReadError(err error) bool {
	var readErr *dominant.ImageReadError
	return errors.As(err, &readErr)
}

func invalidInput(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidInput, format, args...)
}

func algorithmFailure(format string, args ...any) error {
	return errors.Wrapf(ErrAlgorithm, format, args...)
}
