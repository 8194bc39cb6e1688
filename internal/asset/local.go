package asset

import (
	"context"
	"os"
	"path/filepath"
)

// LocalFile stages a file from the local filesystem. It has no version and
// is never cached.
type LocalFile struct {
	Base
	path string
	name string
}

// NewLocalFile copies path under name, or under its own base name when name is empty.
func NewLocalFile(deps *Deps, path, name string) *LocalFile {
	a := &LocalFile{path: path, name: name}
	a.deps = deps
	return a
}

func (a *LocalFile) Version(context.Context) (string, error) {
	return "", nil
}

func (a *LocalFile) CacheID() string {
	return ""
}

// CopyTo returns the path of the copied file.
func (a *LocalFile) CopyTo(_ context.Context, dest string) (string, error) {
	dest, err := a.MkDest(dest, "")
	if err != nil {
		return "", err
	}

	info, err := os.Stat(a.path)
	if err != nil {
		return "", err
	}

	name := a.name
	if name == "" {
		name = filepath.Base(a.path)
	}
	target := filepath.Join(dest, name)
	if err := copyFile(a.path, target, info.Mode()); err != nil {
		return "", err
	}
	return target, nil
}
