package dominant

import "fmt"

// ImageReadError reports an image that could not be decoded or holds no
// pixels. The pipeline treats it as fatal for the whole run.
type ImageReadError struct {
	Path string
	Err  error
}

func (e *ImageReadError) Error() string {
	return fmt.Sprintf("unable to read image %s: %v", e.Path, e.Err)
}

func (e *ImageReadError) Unwrap() error {
	return e.Err
}

func readError(pathname string, format string, args ...any) error {
	return &ImageReadError{Path: pathname, Err: fmt.Errorf(format, args...)}
}
