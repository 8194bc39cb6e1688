package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/soumeh01/vsce-helper/internal/disposable"
	"github.com/soumeh01/vsce-helper/internal/domain"
	"github.com/soumeh01/vsce-helper/internal/extractor"
)

// Base holds the destination handling every asset variant shares. Variants
// embed it and get WithCacheDir and Dispose from it.
type Base struct {
	deps        *Deps
	disposables disposable.Set
	cacheDir    string
}

func (b *Base) WithCacheDir(dir string) {
	b.cacheDir = dir
}

func (b *Base) Dispose() error {
	return b.disposables.Dispose()
}

// MkDest resolves and creates the directory a copy lands in: dest when given,
// else cacheDir/cacheID when both are set, else a fresh temporary directory
// that Dispose removes.
func (b *Base) MkDest(dest, cacheID string) (string, error) {
	if dest == "" && b.cacheDir != "" && cacheID != "" {
		dest = filepath.Join(b.cacheDir, cacheID)
	}

	if dest != "" {
		if err := ensureDir(dest); err != nil {
			return "", err
		}
		return dest, nil
	}

	tmp, err := os.MkdirTemp(b.deps.TempDir, "vsce-helper-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	if err := b.disposables.Add(func() error { return os.RemoveAll(tmp) }); err != nil {
		os.RemoveAll(tmp)
		return "", err
	}
	return tmp, nil
}

// AssureFile reports whether a file or symlink already sits at path. A
// directory in the way is removed and reported as absent.
func (b *Base) AssureFile(path string) (bool, error) {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, os.RemoveAll(path)
	}
	return true, nil
}

// DownloadFile fetches url into dest unless something is already there.
// Existing content is trusted as is.
func (b *Base) DownloadFile(ctx context.Context, url, dest string, headers map[string]string) (string, error) {
	ok, err := b.AssureFile(dest)
	if err != nil {
		return "", err
	}
	if ok {
		return dest, nil
	}
	return b.deps.Transport.Download(ctx, url, dest, headers)
}

// ExtractArchive unpacks archive into dest (resolved like MkDest). Zip
// archives are collapsed strip levels afterwards; tar archives drop strip
// leading path components per entry. Without force, a non-empty dest is
// taken as already extracted.
func (b *Base) ExtractArchive(archive, dest, cacheID string, strip int, force bool) (string, error) {
	dest, err := b.MkDest(dest, cacheID)
	if err != nil {
		return "", err
	}

	format := extractor.Detect(archive)
	if format == extractor.FormatUnknown {
		return "", &domain.ExtractionError{
			Archive: archive,
			Err:     fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Base(archive)),
		}
	}

	if !force {
		empty, err := isEmptyDir(dest)
		if err != nil {
			return "", err
		}
		if !empty {
			return dest, nil
		}
	}

	switch format {
	case extractor.FormatZIP:
		err = b.deps.Zip.Extract(archive, dest, 0)
		if err == nil {
			err = collapse(dest, strip)
		}
	case extractor.FormatTAR:
		err = b.deps.Tar.Extract(archive, dest, strip)
	}
	if err != nil {
		return "", &domain.ExtractionError{Archive: archive, Err: err}
	}
	return dest, nil
}

func ensureDir(path string) error {
	info, err := os.Stat(path)
	switch {
	case err == nil && !info.IsDir():
		return &domain.PathConflictError{Path: path}
	case err == nil:
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}
	return os.MkdirAll(path, 0755)
}

func isEmptyDir(dir string) (bool, error) {
	f, err := os.Open(dir)
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	}
	return false, err
}

// collapse promotes the contents of a lone top-level directory up to dir, up
// to strip times. It stops as soon as dir holds anything but one directory.
func collapse(dir string, strip int) error {
	for i := 0; i < strip; i++ {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		if len(entries) != 1 || !entries[0].IsDir() {
			return nil
		}

		holder, err := os.MkdirTemp(dir, ".strip-*")
		if err != nil {
			return err
		}
		inner := filepath.Join(holder, "d")
		if err := os.Rename(filepath.Join(dir, entries[0].Name()), inner); err != nil {
			os.RemoveAll(holder)
			return err
		}

		children, err := os.ReadDir(inner)
		if err != nil {
			return err
		}
		for _, c := range children {
			if err := os.Rename(filepath.Join(inner, c.Name()), filepath.Join(dir, c.Name())); err != nil {
				return err
			}
		}
		if err := os.RemoveAll(holder); err != nil {
			return err
		}
	}
	return nil
}

// copyRecursive copies src into destDir. A directory is recreated under
// destDir by name, except that the first strip directory levels are
// flattened into their parent.
func copyRecursive(src, destDir string, strip int) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		if err := os.MkdirAll(destDir, 0755); err != nil {
			return err
		}
		return copyEntry(src, filepath.Join(destDir, filepath.Base(src)), info)
	}

	next := destDir
	if strip > 0 {
		strip--
	} else {
		next = filepath.Join(destDir, filepath.Base(src))
	}
	if err := os.MkdirAll(next, 0755); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := copyRecursive(filepath.Join(src, e.Name()), next, strip); err != nil {
			return err
		}
	}
	return nil
}

func copyEntry(src, dst string, info fs.FileInfo) error {
	if info.Mode()&os.ModeSymlink != 0 {
		linkTarget, err := os.Readlink(src)
		if err != nil {
			return err
		}
		os.Remove(dst)
		return os.Symlink(linkTarget, dst)
	}
	return copyFile(src, dst, info.Mode())
}

func copyFile(src, dst string, mode os.FileMode) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return err
	}
	return dstFile.Close()
}
