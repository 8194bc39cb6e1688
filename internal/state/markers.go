package state

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/soumeh01/vsce-helper/internal/domain"
)

const (
	VersionFile = "version.txt"
	TargetFile  = "target.txt"
)

// Markers reads and writes the install markers kept inside a tool's
// destination directory.
type Markers struct {
	dir string
}

func New(dir string) *Markers {
	return &Markers{dir: dir}
}

// Read returns nil when either marker is missing.
func (m *Markers) Read() (*domain.Installed, error) {
	version, err := m.read(VersionFile)
	if err != nil || version == nil {
		return nil, err
	}
	tgt, err := m.read(TargetFile)
	if err != nil || tgt == nil {
		return nil, err
	}
	return &domain.Installed{Version: *version, Target: *tgt}, nil
}

// Write records a finished install. The directory must exist.
func (m *Markers) Write(version, target string) error {
	if err := os.WriteFile(filepath.Join(m.dir, VersionFile), []byte(version), 0644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(m.dir, TargetFile), []byte(target), 0644)
}

func (m *Markers) read(name string) (*string, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}
