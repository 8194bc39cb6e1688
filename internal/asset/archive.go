package asset

import (
	"context"
	"fmt"

	"github.com/soumeh01/vsce-helper/internal/domain"
)

// ArchiveFile unpacks whatever archive its subject produces. It owns the
// subject and disposes it along with itself.
type ArchiveFile struct {
	Base
	subject domain.Asset
	strip   int
}

func NewArchiveFile(deps *Deps, subject domain.Asset, strip int) (*ArchiveFile, error) {
	a := &ArchiveFile{subject: subject, strip: strip}
	a.deps = deps
	if err := a.disposables.Add(subject); err != nil {
		return nil, fmt.Errorf("wrapping asset: %w", err)
	}
	return a, nil
}

func (a *ArchiveFile) Version(ctx context.Context) (string, error) {
	return a.subject.Version(ctx)
}

func (a *ArchiveFile) CacheID() string {
	id := a.subject.CacheID()
	if id == "" {
		return ""
	}
	return id + "_unpacked"
}

// WithCacheDir configures the subject first: its cache key decides where the
// raw archive lands.
func (a *ArchiveFile) WithCacheDir(dir string) {
	a.subject.WithCacheDir(dir)
	a.Base.WithCacheDir(dir)
}

func (a *ArchiveFile) CopyTo(ctx context.Context, dest string) (string, error) {
	archive, err := a.subject.CopyTo(ctx, "")
	if err != nil {
		return "", err
	}
	return a.ExtractArchive(archive, dest, a.CacheID(), a.strip, true)
}
