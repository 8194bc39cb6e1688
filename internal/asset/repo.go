package asset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/soumeh01/vsce-helper/internal/github"
)

// GitHubRepo copies a file or directory out of a repository snapshot. It is
// versioned by commit SHA and never cached.
type GitHubRepo struct {
	gitHub
	ref  string
	path string
}

// NewGitHubRepo snapshots repo at ref. An empty path takes the whole tree.
func NewGitHubRepo(deps *Deps, client *github.Client, repo, ref, path string) (*GitHubRepo, error) {
	a := &GitHubRepo{ref: ref, path: path}
	if err := a.init(deps, client, repo); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *GitHubRepo) Version(ctx context.Context) (string, error) {
	return a.ResolveRef(ctx, a.ref)
}

func (a *GitHubRepo) CacheID() string {
	return ""
}

// CopyTo places the requested path into dest. A directory lands as its
// contents; a file keeps its name. The snapshot is taken at the commit
// Version reports.
func (a *GitHubRepo) CopyTo(ctx context.Context, dest string) (string, error) {
	sha, err := a.ResolveRef(ctx, a.ref)
	if err != nil {
		return "", err
	}
	tarball, err := a.DownloadRepo(ctx, "", sha)
	if err != nil {
		return "", err
	}

	staging, err := a.ExtractArchive(tarball, "", "", 0, true)
	if err != nil {
		return "", err
	}

	top, err := snapshotRoot(staging)
	if err != nil {
		return "", err
	}
	src, err := securejoin.SecureJoin(top, a.path)
	if err != nil {
		return "", err
	}
	if _, err := os.Lstat(src); err != nil {
		return "", fmt.Errorf("%s not found in %s/%s@%s: %w", a.path, a.owner, a.repo, a.ref, err)
	}

	dest, err = a.MkDest(dest, "")
	if err != nil {
		return "", err
	}
	if err := copyRecursive(src, dest, 1); err != nil {
		return "", fmt.Errorf("copying %s: %w", a.path, err)
	}
	return dest, nil
}

// snapshotRoot returns the single directory a GitHub tarball wraps everything in.
func snapshotRoot(staging string) (string, error) {
	entries, err := os.ReadDir(staging)
	if err != nil {
		return "", err
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return "", fmt.Errorf("unexpected repository snapshot layout in %s", staging)
	}
	return filepath.Join(staging, entries[0].Name()), nil
}
