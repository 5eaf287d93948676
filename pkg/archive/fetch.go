// Package archive resolves a reference to a job's images into a local
// directory. A reference is a directory, an archive file, an http(s) URL of
// an archive or the id of an archive shared on Google Drive.
package archive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrInput marks references that could not be turned into a directory of
// images: failed downloads, corrupt or unsupported archives, empty results.
var ErrInput = errors.New("unusable image source")

const (
	DefaultTimeout  = 2 * time.Minute
	DefaultMaxBytes = int64(2 << 30)

	DriveURL  = "https://docs.google.com/uc?export=download&confirm=1"
	UserAgent = "huegroups"
)

var driveIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{10,}$`)

// Fetcher turns references into local directories. Its zero value is usable.
type Fetcher struct {
	Dir       string // parent of working directories; empty selects os.TempDir
	Timeout   time.Duration
	MaxBytes  int64 // limit on downloaded and unpacked bytes
	Client    *http.Client
	DriveURL  string
	UserAgent string
	Log       *zerolog.Logger
}

// Fetch resolves ref to a directory. The returned release func removes any
// working files created for it and is never nil.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (string, func(), error) {
	noop := func() {}

	info, err := os.Stat(ref)
	if err == nil {
		if info.IsDir() {
			return ref, noop, nil
		}

		return f.unpackFile(ctx, ref)
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return f.fetchURL(ctx, ref)
	}

	if driveIDPattern.MatchString(ref) {
		return f.fetchDrive(ctx, ref)
	}

	return "", noop, errors.Wrapf(ErrInput, "%s is not a directory, archive, URL or drive id", ref)
}

//--------------------------------------------------------------------------------
// private

func (f *Fetcher) logger() *zerolog.Logger {
	if f.Log == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return f.Log
}

func (f *Fetcher) maxBytes() int64 {
	if f.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return f.MaxBytes
}

func (f *Fetcher) workDir() (string, func(), error) {
	dir, err := os.MkdirTemp(f.Dir, "huegroups-")
	if err != nil {
		return "", func() {}, fmt.Errorf("unable to create working directory: %w", err)
	}

	release := func() {
		if err := os.RemoveAll(dir); err != nil {
			f.logger().Warn().Err(err).Str("dir", dir).Msg("unable to remove working directory")
		}
	}

	return dir, release, nil
}

func (f *Fetcher) unpackFile(ctx context.Context, pathname string) (string, func(), error) {
	work, release, err := f.workDir()
	if err != nil {
		return "", release, err
	}

	dir, err := f.unpack(ctx, pathname, work)
	if err != nil {
		release()
		return "", func() {}, err
	}

	return dir, release, nil
}

func (f *Fetcher) fetchURL(ctx context.Context, ref string) (string, func(), error) {
	work, release, err := f.workDir()
	if err != nil {
		return "", release, err
	}

	dir, err := f.downloadAndUnpack(ctx, work, ref, nil)
	if err != nil {
		release()
		return "", func() {}, err
	}

	return dir, release, nil
}

func (f *Fetcher) fetchDrive(ctx context.Context, id string) (string, func(), error) {
	work, release, err := f.workDir()
	if err != nil {
		return "", release, err
	}

	base := f.DriveURL
	if base == "" {
		base = DriveURL
	}

	ref, err := withQuery(base, "id", id)
	if err != nil {
		release()
		return "", func() {}, err
	}

	confirm := func(resp *http.Response) string {
		for _, cookie := range resp.Cookies() {
			if strings.HasPrefix(cookie.Name, "download_warning") {
				next, _ := withQuery(ref, "confirm", cookie.Value)
				return next
			}
		}
		return ""
	}

	dir, err := f.downloadAndUnpack(ctx, work, ref, confirm)
	if err != nil {
		release()
		return "", func() {}, err
	}

	return dir, release, nil
}

// downloadAndUnpack saves ref into work and unpacks it there. When retry
// yields a URL for the first response, that URL is fetched instead.
func (f *Fetcher) downloadAndUnpack(ctx context.Context, work, ref string, retry func(*http.Response) string) (string, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := f.get(ctx, ref)
	if err != nil {
		return "", err
	}

	if retry != nil {
		if next := retry(resp); next != "" {
			resp.Body.Close()
			f.logger().Debug().Msg("confirming download")

			resp, err = f.get(ctx, next)
			if err != nil {
				return "", err
			}
		}
	}

	pathname, err := f.save(ctx, resp, work)
	if err != nil {
		return "", err
	}

	return f.unpack(ctx, pathname, work)
}

func withQuery(ref, key, value string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", errors.Wrapf(ErrInput, "unable to parse %s: %v", ref, err)
	}

	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (f *Fetcher) get(ctx context.Context, ref string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, errors.Wrapf(ErrInput, "unable to request %s: %v", ref, err)
	}

	agent := f.UserAgent
	if agent == "" {
		agent = UserAgent
	}
	req.Header.Set("User-Agent", agent)

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	f.logger().Debug().Str("url", ref).Msg("downloading")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return nil, ctx.Err()
		}
		return nil, errors.Wrapf(ErrInput, "unable to download %s: %v", ref, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Wrapf(ErrInput, "unable to download %s: %s", ref, resp.Status)
	}

	return resp, nil
}

func (f *Fetcher) save(ctx context.Context, resp *http.Response, work string) (string, error) {
	defer resp.Body.Close()

	out, err := os.CreateTemp(work, "download-*")
	if err != nil {
		return "", fmt.Errorf("unable to create download file: %w", err)
	}

	limit := f.maxBytes()
	n, copyErr := io.Copy(out, io.LimitReader(resp.Body, limit+1))
	closeErr := out.Close()

	if copyErr != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", errors.Wrapf(ErrInput, "unable to read download: %v", copyErr)
	}

	if closeErr != nil {
		return "", fmt.Errorf("unable to write %s: %w", out.Name(), closeErr)
	}

	if n > limit {
		return "", errors.Wrapf(ErrInput, "download exceeds %d bytes", limit)
	}

	f.logger().Debug().Int64("bytes", n).Str("file", out.Name()).Msg("downloaded")
	return out.Name(), nil
}
