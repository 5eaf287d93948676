package archive

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

// Format identifies an archive layout by its leading bytes.
type Format int

const (
	Unknown Format = iota
	Zip
	Tar
	TarGzip
	TarXz
)

var formatNames = map[Format]string{
	Unknown: "unknown",
	Zip:     "zip",
	Tar:     "tar",
	TarGzip: "tar.gz",
	TarXz:   "tar.xz",
}

func (f Format) String() string {
	return formatNames[f]
}

var (
	zipMagic      = []byte("PK\x03\x04")
	zipEmptyMagic = []byte("PK\x05\x06")
	gzipMagic     = []byte{0x1f, 0x8b}
	xzMagic       = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	tarMagic      = []byte("ustar")
)

const tarMagicOffset = 257

// Sniff reports the archive format of header, the first bytes of a file.
func Sniff(header []byte) Format {
	switch {
	case bytes.HasPrefix(header, zipMagic), bytes.HasPrefix(header, zipEmptyMagic):
		return Zip
	case bytes.HasPrefix(header, gzipMagic):
		return TarGzip
	case bytes.HasPrefix(header, xzMagic):
		return TarXz
	case len(header) >= tarMagicOffset+len(tarMagic) &&
		bytes.Equal(header[tarMagicOffset:tarMagicOffset+len(tarMagic)], tarMagic):
		return Tar
	}
	return Unknown
}

//--------------------------------------------------------------------------------
// private

// unpack extracts the archive at pathname below work and returns the
// directory holding its content.
func (f *Fetcher) unpack(ctx context.Context, pathname, work string) (string, error) {
	file, err := os.Open(pathname)
	if err != nil {
		return "", errors.Wrapf(ErrInput, "unable to open %s: %v", pathname, err)
	}
	defer file.Close()

	header, err := bufio.NewReader(file).Peek(512)
	if err != nil && err != io.EOF {
		return "", errors.Wrapf(ErrInput, "unable to read %s: %v", pathname, err)
	}

	format := Sniff(header)
	f.logger().Debug().Str("file", pathname).Stringer("format", format).Msg("unpacking")

	if _, err = file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("unable to rewind %s: %w", pathname, err)
	}

	dest := filepath.Join(work, "images")
	if err = os.Mkdir(dest, 0o755); err != nil {
		return "", fmt.Errorf("unable to create %s: %w", dest, err)
	}

	x := &extractor{ctx: ctx, dest: dest, remaining: f.maxBytes()}

	switch format {
	case Zip:
		err = x.zip(file)
	case Tar:
		err = x.tar(file)
	case TarGzip:
		var gz *gzip.Reader
		gz, err = gzip.NewReader(file)
		if err == nil {
			defer gz.Close()
			err = x.tar(gz)
		}
	case TarXz:
		var xzr *xz.Reader
		xzr, err = xz.NewReader(file)
		if err == nil {
			err = x.tar(xzr)
		}
	default:
		return "", errors.Wrapf(ErrInput, "%s is not a supported archive", filepath.Base(pathname))
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if errors.Is(err, ErrInput) {
			return "", err
		}
		return "", errors.Wrapf(ErrInput, "unable to unpack %s archive: %v", format, err)
	}

	if x.files == 0 {
		return "", errors.Wrapf(ErrInput, "%s archive holds no files", format)
	}

	return descend(dest)
}

type extractor struct {
	ctx       context.Context
	dest      string
	remaining int64
	files     int
}

func (x *extractor) zip(file *os.File) error {
	info, err := file.Stat()
	if err != nil {
		return err
	}

	zr, err := zip.NewReader(file, info.Size())
	if err != nil {
		return err
	}

	for _, entry := range zr.File {
		if err := x.ctx.Err(); err != nil {
			return err
		}

		mode := entry.Mode()
		if mode.IsDir() {
			if _, err := x.mkdir(entry.Name); err != nil {
				return err
			}
			continue
		}

		if !mode.IsRegular() {
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return err
		}

		err = x.write(entry.Name, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

func (x *extractor) tar(r io.Reader) error {
	tr := tar.NewReader(r)
	for {
		if err := x.ctx.Err(); err != nil {
			return err
		}

		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if _, err := x.mkdir(header.Name); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := x.write(header.Name, tr); err != nil {
				return err
			}
		}
	}
}

// target maps an entry name into dest, refusing names that escape it.
func (x *extractor) target(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.Wrapf(ErrInput, "archive entry %q escapes the destination", name)
	}

	return filepath.Join(x.dest, clean), nil
}

func (x *extractor) mkdir(name string) (string, error) {
	pathname, err := x.target(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(pathname, 0o755); err != nil {
		return "", fmt.Errorf("unable to create %s: %w", pathname, err)
	}

	return pathname, nil
}

func (x *extractor) write(name string, r io.Reader) error {
	pathname, err := x.target(name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(pathname), 0o755); err != nil {
		return fmt.Errorf("unable to create %s: %w", filepath.Dir(pathname), err)
	}

	out, err := os.OpenFile(pathname, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("unable to create %s: %w", pathname, err)
	}

	n, copyErr := io.Copy(out, io.LimitReader(r, x.remaining+1))
	closeErr := out.Close()

	if copyErr != nil {
		return copyErr
	}

	if closeErr != nil {
		return fmt.Errorf("unable to write %s: %w", pathname, closeErr)
	}

	x.remaining -= n
	if x.remaining < 0 {
		return errors.Wrap(ErrInput, "archive content exceeds the size limit")
	}

	x.files++
	return nil
}

// descend follows a lone top-level directory, so archives that wrap their
// images in a folder resolve to that folder.
func descend(dir string) (string, error) {
	for {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return "", fmt.Errorf("unable to read %s: %w", dir, err)
		}

		visible := []os.DirEntry{}
		for _, entry := range entries {
			if ignoredEntry(entry.Name()) {
				continue
			}
			visible = append(visible, entry)
		}

		if len(visible) != 1 || !visible[0].IsDir() {
			return dir, nil
		}

		dir = filepath.Join(dir, visible[0].Name())
	}
}

func ignoredEntry(name string) bool {
	return strings.HasPrefix(name, ".") || name == "__MACOSX"
}
