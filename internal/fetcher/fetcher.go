package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
)

const DefaultUserAgent = "vsce-helper"

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("download %s: unexpected status: %d", e.URL, e.StatusCode)
}

// NetworkError is returned when the request could not be completed.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	progress  bool
}

type Option func(*HTTPFetcher)

func WithClient(c *http.Client) Option {
	return func(f *HTTPFetcher) { f.client = c }
}

// WithProgress draws a byte progress bar on stderr per download.
func WithProgress(enabled bool) Option {
	return func(f *HTTPFetcher) { f.progress = enabled }
}

func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) { f.userAgent = ua }
}

func New(timeout time.Duration, opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Download writes url to dest. The body goes to dest+".tmp" first and is
// renamed on success, so dest only ever holds a complete download.
func (f *HTTPFetcher) Download(ctx context.Context, url, dest string, headers map[string]string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", err
	}

	tmp := dest + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return "", err
	}

	var w io.Writer = file
	if f.progress {
		bar := progressbar.DefaultBytes(
			resp.ContentLength,
			fmt.Sprintf("Downloading %s", filepath.Base(dest)),
		)
		w = io.MultiWriter(file, bar)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		file.Close()
		os.Remove(tmp)
		return "", &NetworkError{URL: url, Err: err}
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return "", err
	}

	return dest, nil
}

// Checksum returns the hex SHA-256 of the file at path.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
