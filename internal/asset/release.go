package asset

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/soumeh01/vsce-helper/internal/domain"
	"github.com/soumeh01/vsce-helper/internal/github"
)

// GitHubRelease is one named asset of a tagged release. CopyTo returns the
// downloaded file; wrap it in an ArchiveFile to unpack it.
type GitHubRelease struct {
	gitHub
	tag   string
	asset string
}

func NewGitHubRelease(deps *Deps, client *github.Client, repo, tag, asset string) (*GitHubRelease, error) {
	a := &GitHubRelease{tag: tag, asset: asset}
	if err := a.init(deps, client, repo); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *GitHubRelease) Version(context.Context) (string, error) {
	return a.tag, nil
}

func (a *GitHubRelease) CacheID() string {
	return filepath.Join(a.cacheRoot(), "releases", sanitize(a.tag), leafName(a.asset))
}

func (a *GitHubRelease) CopyTo(ctx context.Context, dest string) (string, error) {
	dest, err := a.MkDest(dest, a.CacheID())
	if err != nil {
		return "", err
	}

	file := filepath.Join(dest, a.asset)
	ok, err := a.AssureFile(file)
	if err != nil {
		return "", err
	}
	if ok {
		return file, nil
	}

	url, err := a.assetURL(ctx)
	if err != nil {
		return "", err
	}
	return a.download(ctx, url, file)
}

func (a *GitHubRelease) assetURL(ctx context.Context) (string, error) {
	rel, err := a.findRelease(ctx)
	if err != nil {
		return "", err
	}

	assets, err := a.client.ListReleaseAssets(ctx, a.owner, a.repo, rel.ID)
	if err != nil {
		return "", err
	}
	for _, as := range assets {
		if as.Name == a.asset {
			return as.BrowserDownloadURL, nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s/%s@%s", domain.ErrAssetNotFound, a.asset, a.owner, a.repo, a.tag)
}

// findRelease tries the tag endpoint first and falls back to scanning every
// release, which also finds drafts.
func (a *GitHubRelease) findRelease(ctx context.Context) (*github.Release, error) {
	rel, err := a.client.GetReleaseByTag(ctx, a.owner, a.repo, a.tag)
	if err == nil {
		return rel, nil
	}
	if !errors.Is(err, github.ErrNotFound) {
		return nil, err
	}

	releases, err := a.client.ListReleases(ctx, a.owner, a.repo)
	if err != nil && !errors.Is(err, github.ErrNotFound) {
		return nil, err
	}
	for i := range releases {
		if releases[i].TagName == a.tag {
			return &releases[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s@%s", domain.ErrReleaseNotFound, a.owner, a.repo, a.tag)
}
