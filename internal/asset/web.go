package asset

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/soumeh01/vsce-helper/internal/domain"
	"github.com/soumeh01/vsce-helper/internal/fetcher"
)

// WebFile is a single file served over HTTP(S).
type WebFile struct {
	Base
	url      string
	version  string
	fileName string
	sha256   string
}

type WebOption func(*WebFile)

// WithFileName overrides the name derived from the URL path.
func WithFileName(name string) WebOption {
	return func(a *WebFile) { a.fileName = name }
}

// WithSHA256 verifies the downloaded file against a hex digest.
func WithSHA256(sum string) WebOption {
	return func(a *WebFile) { a.sha256 = strings.ToLower(sum) }
}

func NewWebFile(deps *Deps, rawURL, version string, opts ...WebOption) *WebFile {
	a := &WebFile{url: rawURL, version: version}
	a.deps = deps
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *WebFile) Version(context.Context) (string, error) {
	return a.version, nil
}

func (a *WebFile) CacheID() string {
	return cacheIDFromURL(a.url)
}

// CopyTo returns the path of the downloaded file.
func (a *WebFile) CopyTo(ctx context.Context, dest string) (string, error) {
	dest, err := a.MkDest(dest, a.CacheID())
	if err != nil {
		return "", err
	}

	name := a.fileName
	if name == "" {
		name = fileNameFromURL(a.url)
	}
	if name == "" {
		return "", fmt.Errorf("cannot derive a file name from %s", a.url)
	}

	file, err := a.DownloadFile(ctx, a.url, filepath.Join(dest, name), nil)
	if err != nil {
		return "", err
	}

	if a.sha256 != "" {
		if err := verify(file, a.sha256); err != nil {
			return "", err
		}
	}
	return file, nil
}

func fileNameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return ""
	}
	return name
}

// verify removes file when its digest does not match.
func verify(file, want string) error {
	got, err := fetcher.Checksum(file)
	if err != nil {
		return err
	}
	if got != want {
		os.Remove(file)
		return fmt.Errorf("%w for %s: expected %s, got %s", domain.ErrChecksumMismatch, filepath.Base(file), want, got)
	}
	return nil
}
