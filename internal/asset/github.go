package asset

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/soumeh01/vsce-helper/internal/github"
)

// gitHub is the part shared by every GitHub-backed asset.
type gitHub struct {
	Base
	client *github.Client
	owner  string
	repo   string

	mu   sync.Mutex
	refs map[string]string
}

func (g *gitHub) init(deps *Deps, client *github.Client, repo string) error {
	owner, name, err := github.ParseRepo(repo)
	if err != nil {
		return err
	}
	g.deps = deps
	g.client = client
	g.owner = owner
	g.repo = name
	g.refs = make(map[string]string)
	return nil
}

// download fetches url behind the file guard. The token goes along only
// when url points at GitHub.
func (g *gitHub) download(ctx context.Context, url, dest string) (string, error) {
	return g.DownloadFile(ctx, url, dest, g.client.AuthHeaders(url))
}

// ResolveRef maps ref to a commit SHA. Each ref hits the API once per asset.
func (g *gitHub) ResolveRef(ctx context.Context, ref string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if sha, ok := g.refs[ref]; ok {
		return sha, nil
	}
	sha, err := g.client.ResolveRef(ctx, g.owner, g.repo, ref)
	if err != nil {
		return "", err
	}
	g.refs[ref] = sha
	return sha, nil
}

// DownloadRepo saves the tarball of the repository at ref as dest/repo.tar.gz.
func (g *gitHub) DownloadRepo(ctx context.Context, dest, ref string) (string, error) {
	dest, err := g.MkDest(dest, "")
	if err != nil {
		return "", err
	}
	return g.download(ctx, g.client.TarballURL(g.owner, g.repo, ref), filepath.Join(dest, "repo.tar.gz"))
}

func (g *gitHub) cacheRoot() string {
	return filepath.Join("github.com", sanitize(g.owner), sanitize(g.repo))
}
