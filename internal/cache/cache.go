package cache

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// DiskCache inspects the shared cache directory assets store downloads in.
// Downloads never delete from it; only Clear does.
type DiskCache struct {
	dir string
}

func New(dir string) *DiskCache {
	return &DiskCache{dir: dir}
}

func (c *DiskCache) Dir() string {
	return c.dir
}

// Size is the total size of the files in the cache. A missing cache is empty.
func (c *DiskCache) Size() (int64, error) {
	var size int64
	err := filepath.WalkDir(c.dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			size += info.Size()
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	return size, err
}

// Hosts lists the top-level entries, one per source host.
func (c *DiskCache) Hosts() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var hosts []string
	for _, e := range entries {
		if e.IsDir() {
			hosts = append(hosts, e.Name())
		}
	}
	sort.Strings(hosts)
	return hosts, nil
}

func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}
