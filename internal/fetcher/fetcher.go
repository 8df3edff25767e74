// Package fetcher opens the two static dataset sources and parses tabular
// payloads. Sources are addressed by URL; bare paths and file:// URLs read
// the local filesystem, http(s):// downloads with retry and rate limiting,
// ftp:// retrieves over anonymous FTP.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Fetcher opens a single source URL for reading.
type Fetcher interface {
	// Open fetches the source and returns its body. The caller must close
	// the returned ReadCloser.
	Open(ctx context.Context, source string) (io.ReadCloser, error)
}

// Options configures source access.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	UserAgent  string
}

// MultiFetcher dispatches on the source URL scheme.
type MultiFetcher struct {
	http *HTTPFetcher
	ftp  *FTPFetcher
}

// New creates a MultiFetcher with the given options.
func New(opts Options) *MultiFetcher {
	return &MultiFetcher{
		http: NewHTTPFetcher(opts),
		ftp:  NewFTPFetcher(opts),
	}
}

// Open fetches the source by scheme. Unrecognized schemes and scheme-less
// strings are treated as local filesystem paths.
func (m *MultiFetcher) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	switch scheme(source) {
	case "http", "https":
		return m.http.Open(ctx, source)
	case "ftp":
		return m.ftp.Open(ctx, source)
	case "file":
		u, err := url.Parse(source)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: parse %s", source)
		}
		return openFile(u.Path)
	default:
		return openFile(source)
	}
}

// OpenIfChanged is Open with change detection: for HTTP sources it skips
// the download when the server reports the previously seen ETag. Sources
// without change detection (local files, FTP) always count as changed.
func (m *MultiFetcher) OpenIfChanged(ctx context.Context, source string) (io.ReadCloser, bool, error) {
	switch scheme(source) {
	case "http", "https":
		return m.http.OpenIfChanged(ctx, source)
	default:
		body, err := m.Open(ctx, source)
		if err != nil {
			return nil, false, err
		}
		return body, true, nil
	}
}

func scheme(source string) string {
	i := strings.Index(source, "://")
	if i < 0 {
		return ""
	}
	return strings.ToLower(source[:i])
}

func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}
	return f, nil
}
